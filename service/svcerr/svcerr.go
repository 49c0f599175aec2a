// Package svcerr carries domain error codes from services to controllers so
// handlers can translate them to HTTP statuses without string matching.
package svcerr

import "errors"

type Code string

type coded struct {
	code Code
	msg  string
}

func (e coded) Error() string {
	if e.msg == "" {
		return string(e.code)
	}
	return string(e.code) + ": " + e.msg
}

func (e coded) Code() Code { return e.code }

func New(code Code) error { return coded{code: code} }

func Msg(code Code, msg string) error { return coded{code: code, msg: msg} }

// CodeOf extracts the domain code, or "" for plain errors.
func CodeOf(err error) Code {
	var ce interface{ Code() Code }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

func Is(err error, code Code) bool { return CodeOf(err) == code }
