// Copyright 2015 Richard Lehane. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cfb

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. Use errors.Is against these to classify a
// failure returned from any package function or method.
var (
	ErrInvalidData   = errors.New("cfb: invalid compound file data")
	ErrNotFound      = errors.New("cfb: path does not resolve to an entry")
	ErrAlreadyExists = errors.New("cfb: entry already exists")
	ErrInvalidInput  = errors.New("cfb: invalid argument")
	ErrUnexpectedEOF = errors.New("cfb: backing container shorter than expected")
	ErrOutOfSpace    = errors.New("cfb: allocator cannot grow further")
	ErrReadOnly      = errors.New("cfb: compound file opened read-only")
)

// FormatError carries the sector or entry id implicated in a failure,
// alongside the sentinel kind it wraps.
type FormatError struct {
	Kind   error
	Msg    string
	Sector uint32
}

func (e *FormatError) Error() string {
	if e.Sector == noStream {
		return fmt.Sprintf("cfb: %s", e.Msg)
	}
	return fmt.Sprintf("cfb: %s (sector %d)", e.Msg, e.Sector)
}

func (e *FormatError) Unwrap() error { return e.Kind }

func newFormatError(kind error, msg string, sector uint32) error {
	return &FormatError{Kind: kind, Msg: msg, Sector: sector}
}
