package flagvalue

import (
	"flag"
	"io"
	"reflect"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfridman/sigcli/pkg/signature"
)

func stringConvert(s string) (any, error) { return s, nil }

func intConvert(s string) (any, error) { return strconv.Atoi(s) }

func TestValue(t *testing.T) {
	t.Parallel()

	t.Run("store", func(t *testing.T) {
		t.Parallel()
		v := New(&signature.Argument{Name: "env", Action: signature.ActionStore, Default: "staging", Convert: stringConvert})
		assert.Equal(t, "staging", v.Get())
		assert.Equal(t, "staging", v.String())
		assert.False(t, v.IsBoolFlag())
		require.NoError(t, v.Set("prod"))
		assert.Equal(t, "prod", v.Get())
		assert.True(t, v.IsSet())
		v.Reset()
		assert.Equal(t, "staging", v.Get())
		assert.False(t, v.IsSet())
	})
	t.Run("choices", func(t *testing.T) {
		t.Parallel()
		v := New(&signature.Argument{Name: "format", Action: signature.ActionStore, Choices: []string{"text", "json"}, Convert: stringConvert})
		require.NoError(t, v.Set("json"))
		err := v.Set("yaml")
		require.Error(t, err)
		assert.Equal(t, `invalid choice: "yaml" (choose from 'text', 'json')`, err.Error())
		err = v.Set("jso")
		require.Error(t, err)
		assert.Equal(t, `invalid choice: "jso" (choose from 'text', 'json'), did you mean 'json'?`, err.Error())
		assert.Equal(t, "json", v.Get())
	})
	t.Run("conversion error", func(t *testing.T) {
		t.Parallel()
		v := New(&signature.Argument{Name: "n", Action: signature.ActionStore, Convert: intConvert})
		require.Error(t, v.Set("x"))
		assert.Nil(t, v.Get())
		assert.Equal(t, "", v.String())
	})
	t.Run("store true and false", func(t *testing.T) {
		t.Parallel()
		on := New(&signature.Argument{Name: "dry_run", Action: signature.ActionStoreTrue, Default: false})
		off := New(&signature.Argument{Name: "push", Action: signature.ActionStoreFalse, Default: true})
		assert.True(t, on.IsBoolFlag())
		assert.True(t, off.IsBoolFlag())
		assert.Equal(t, "false", on.String())
		require.NoError(t, on.Set("true"))
		require.NoError(t, off.Set("true"))
		assert.Equal(t, true, on.Get())
		assert.Equal(t, false, off.Get())
		require.Error(t, on.Set("maybe"))
	})
	t.Run("append copies the default", func(t *testing.T) {
		t.Parallel()
		def := []string{"default"}
		v := New(&signature.Argument{Name: "items", Action: signature.ActionAppend, Default: def, Convert: stringConvert})
		require.NoError(t, v.Set("a"))
		require.NoError(t, v.Set("b"))
		assert.Equal(t, []any{"default", "a", "b"}, v.Get())
		assert.Equal(t, []string{"default"}, def)
		assert.Equal(t, "default,a,b", v.String())

		v.Reset()
		assert.Equal(t, def, v.Get())
		require.NoError(t, v.Set("c"))
		assert.Equal(t, []any{"default", "c"}, v.Get())
	})
	t.Run("list nargs replaces the default", func(t *testing.T) {
		t.Parallel()
		v := New(&signature.Argument{Name: "files", Action: signature.ActionStore, Nargs: signature.NargsMany, Default: []string{"x"}, Convert: stringConvert})
		require.NoError(t, v.Set("a"))
		require.NoError(t, v.Set("b"))
		assert.Equal(t, []any{"a", "b"}, v.Get())
	})
	t.Run("count", func(t *testing.T) {
		t.Parallel()
		v := New(&signature.Argument{Name: "verbose", Action: signature.ActionCount, Type: reflect.TypeFor[int64]()})
		assert.True(t, v.IsBoolFlag())
		assert.Nil(t, v.Get())
		require.NoError(t, v.Set("true"))
		require.NoError(t, v.Set("true"))
		assert.Equal(t, int64(2), v.Get())

		withDefault := New(&signature.Argument{Name: "level", Action: signature.ActionCount, Type: reflect.TypeFor[int](), Default: 3})
		require.NoError(t, withDefault.Set("true"))
		assert.Equal(t, 4, withDefault.Get())
	})
	t.Run("zero value string", func(t *testing.T) {
		t.Parallel()
		var v *Value
		assert.Equal(t, "", v.String())
		assert.False(t, v.IsBoolFlag())
		assert.Equal(t, "", new(Value).String())
	})
}

func TestValueWithFlagSet(t *testing.T) {
	t.Parallel()

	arg := &signature.Argument{Name: "quiet", Action: signature.ActionStoreTrue, Default: false}
	v := New(arg)
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Var(v, "quiet", "")
	fs.Var(v, "q", "")
	require.NoError(t, fs.Parse([]string{"-q"}))
	assert.Equal(t, true, v.Get())
	assert.Same(t, arg, v.Argument())
}

type mode int

func (mode) EnumMembers() []signature.EnumMember {
	return []signature.EnumMember{{Name: "FAST", Value: mode(0)}, {Name: "SAFE", Value: mode(1)}}
}

func TestFormat(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "safe", Format(mode(1)))
	assert.Equal(t, "fast,safe", Format([]mode{0, 1}))
	assert.Equal(t, "7", Format(mode(7)))

	assert.Equal(t, "", Format(nil))
	assert.Equal(t, "1,2", Format([]int{1, 2}))
	assert.Equal(t, "", Format([]string{}))
	assert.Equal(t, "true", Format(true))
}
