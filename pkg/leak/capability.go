// Copyright 2025 CloudWeGo Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package leak

import (
	"reflect"
	"strings"

	"github.com/modern-go/reflect2"
)

// Capability is the set of release operations a subject exposes.
type Capability uint8

const (
	// Closable subjects have a window-like Close method.
	Closable Capability = 1 << iota
	// Disposable subjects have an exported Dispose method.
	Disposable
	// Hook subjects carry an unexported `dispose func()` field.
	Hook

	// None is the empty capability set.
	None Capability = 0
)

// HookField is the name of the unexported field looked up on subjects that
// have no Dispose method.
const HookField = "dispose"

func (c Capability) String() string {
	if c == None {
		return "none"
	}
	var parts []string
	if c&Closable != 0 {
		parts = append(parts, "closable")
	}
	if c&Disposable != 0 {
		parts = append(parts, "disposable")
	}
	if c&Hook != 0 {
		parts = append(parts, "hook")
	}
	return strings.Join(parts, "|")
}

type (
	closer           interface{ Close() }
	fallibleCloser   interface{ Close() error }
	disposer         interface{ Dispose() }
	fallibleDisposer interface{ Dispose() error }
)

var hookType = reflect.TypeOf((func())(nil))

// elemType returns the reflect2 type of T.
func elemType[T any]() reflect2.Type {
	return reflect2.TypeOf((*T)(nil)).(reflect2.PtrType).Elem()
}

func typeName[T any]() string {
	return elemType[T]().String()
}

// capabilities inspects *T once. The hook field, if any, is resolved on the
// type and never on the instance.
func capabilities[T any]() (Capability, reflect2.StructField) {
	var caps Capability
	var probe any = (*T)(nil)
	switch probe.(type) {
	case closer, fallibleCloser:
		caps |= Closable
	}
	switch probe.(type) {
	case disposer, fallibleDisposer:
		caps |= Disposable
		return caps, nil
	}

	st, ok := elemType[T]().(reflect2.StructType)
	if !ok {
		return caps, nil
	}
	field := st.FieldByName(HookField)
	if field == nil || len(field.Index()) != 1 || field.Type().Type1() != hookType {
		return caps, nil
	}
	return caps | Hook, field
}

// layout classifies how the runtime allocates a T.
type layout int

const (
	ordinary layout = iota
	zeroSize
	tinyBlock // pointer-free and below the tiny allocator's 16 byte limit
)

const maxTinySize = 16

func layoutOf[T any]() layout {
	t := elemType[T]().Type1()
	switch size := t.Size(); {
	case size == 0:
		return zeroSize
	case size < maxTinySize && !hasPointers(t):
		return tinyBlock
	}
	return ordinary
}

func hasPointers(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.UnsafePointer, reflect.Map, reflect.Chan,
		reflect.Func, reflect.Interface, reflect.Slice, reflect.String:
		return true
	case reflect.Array:
		return t.Len() > 0 && hasPointers(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if hasPointers(t.Field(i).Type) {
				return true
			}
		}
	}
	return false
}

func closeSubject(subject any) error {
	switch s := subject.(type) {
	case closer:
		s.Close()
	case fallibleCloser:
		return s.Close()
	}
	return nil
}

func disposeSubject(subject any) error {
	switch s := subject.(type) {
	case disposer:
		s.Dispose()
	case fallibleDisposer:
		return s.Dispose()
	}
	return nil
}

func invokeHook(field reflect2.StructField, subject any) {
	if fn := *field.Get(subject).(*func()); fn != nil {
		fn()
	}
}
