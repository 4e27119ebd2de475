/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package ipcerr carries the closed error taxonomy that crosses the client
// transport API. Unlike a general-purpose error framework, the IPC core only
// ever surfaces one of the Category values below to a caller of Client.Call;
// everything else (stack traces, parent chains, pooled collections) is out
// of scope for this transport and lives, if at all, in the caller's own
// error handling.
package ipcerr

import "fmt"

// Category is a closed enumeration of the ways an IPC call can fail (or
// succeed). It intentionally has no "unset" zero value distinct from
// NoError so a default-constructed Category reads as success.
type Category uint8

const (
	NoError Category = iota
	NoConnection
	Timeout
	ReadError
	WriteError
	InvalidServer
	VersionMismatch
	QuitRequested
	Unknown
)

func (c Category) String() string {
	switch c {
	case NoError:
		return "NoError"
	case NoConnection:
		return "NoConnection"
	case Timeout:
		return "Timeout"
	case ReadError:
		return "ReadError"
	case WriteError:
		return "WriteError"
	case InvalidServer:
		return "InvalidServer"
	case VersionMismatch:
		return "VersionMismatch"
	case QuitRequested:
		return "QuitRequested"
	default:
		return "Unknown"
	}
}

// Error wraps a Category with the underlying cause, if any. It satisfies the
// standard error interface plus errors.Is/errors.As via Unwrap, so callers
// can either switch on Category() or use
// errors.Is(err, ipcerr.Sentinel(ipcerr.Timeout)).
type Error struct {
	cat    Category
	cause  error
	detail string
}

// New builds an Error for the given category. detail is an optional
// human-readable note (e.g. which address, which pid) appended to the
// message; it is not part of equality/Is comparisons.
func New(cat Category, detail string, cause error) *Error {
	return &Error{cat: cat, cause: cause, detail: detail}
}

func (e *Error) Category() Category {
	if e == nil {
		return NoError
	}
	return e.cat
}

func (e *Error) Error() string {
	if e == nil {
		return "no error"
	}
	if e.detail == "" && e.cause == nil {
		return e.cat.String()
	}
	if e.cause == nil {
		return fmt.Sprintf("%s: %s", e.cat, e.detail)
	}
	if e.detail == "" {
		return fmt.Sprintf("%s: %v", e.cat, e.cause)
	}
	return fmt.Sprintf("%s: %s: %v", e.cat, e.detail, e.cause)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Is lets errors.Is(err, SomeCategorySentinel) work by comparing categories
// rather than pointer identity, matching how spec.md's error table is meant
// to be consumed (switch on category, not on a specific instance).
func (e *Error) Is(target error) bool {
	var o *Error
	if te, ok := target.(*Error); ok {
		o = te
	} else {
		return false
	}
	return e.cat == o.cat
}

// Sentinel returns a bare Error carrying only a category, suitable for use
// with errors.Is as a comparison target:
//
//	if errors.Is(err, ipcerr.Sentinel(ipcerr.Timeout)) { ... }
func Sentinel(cat Category) *Error {
	return &Error{cat: cat}
}

// CategoryOf extracts the Category from any error, returning Unknown if err
// does not carry one. A nil error returns NoError.
func CategoryOf(err error) Category {
	if err == nil {
		return NoError
	}
	var e *Error
	if as(err, &e) {
		return e.cat
	}
	return Unknown
}

// as is a tiny local shim over errors.As kept here (rather than importing
// the standard errors package under an aliased name everywhere) so category.go
// reads the same way the rest of this package does.
func as(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
