package scripting_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/dungeonmaster/internal/game/dice"
	"github.com/cory-johannsen/dungeonmaster/internal/scripting"
)

func newTestManager(t testing.TB, src dice.Source) (*scripting.Manager, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)
	mgr := scripting.NewManager(dice.NewLoggedRoller(src, logger), logger)
	t.Cleanup(mgr.Close)
	return mgr, logs
}

func writeTempLua(t testing.TB, filename, src string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, filename), []byte(src), 0644))
	return dir
}

func numbers(vals ...float64) func(*lua.LState) []lua.LValue {
	return func(*lua.LState) []lua.LValue {
		out := make([]lua.LValue, len(vals))
		for i, v := range vals {
			out[i] = lua.LNumber(v)
		}
		return out
	}
}

func TestManager_LoadDir_CallsFunction(t *testing.T) {
	mgr, _ := newTestManager(t, dice.NewCryptoSource())
	dir := writeTempLua(t, "add.lua", `
		function add(a, b)
			return a + b
		end
	`)
	require.NoError(t, mgr.LoadDir("math", dir, 0))
	assert.True(t, mgr.Has("math", "add"))
	assert.False(t, mgr.Has("math", "sub"))

	ret, err := mgr.Call(context.Background(), "math", "add", numbers(3, 4))
	require.NoError(t, err)
	assert.Equal(t, lua.LNumber(7), ret)
}

func TestManager_LoadDir_FilesInLexicalOrder(t *testing.T) {
	mgr, _ := newTestManager(t, dice.NewCryptoSource())
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.lua"), []byte(`value = value .. "b"`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.lua"), []byte(`value = "a"`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.lua"), []byte(`function get() return value end`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte(`not lua`), 0644))
	require.NoError(t, mgr.LoadDir("order", dir, 0))

	ret, err := mgr.Call(context.Background(), "order", "get", nil)
	require.NoError(t, err)
	assert.Equal(t, lua.LString("ab"), ret)
}

func TestManager_LoadErrors(t *testing.T) {
	mgr, _ := newTestManager(t, dice.NewCryptoSource())
	assert.Error(t, mgr.LoadDir("missing", filepath.Join(t.TempDir(), "nope"), 0))
	assert.Error(t, mgr.LoadString("syntax", `function (`, 0))
	assert.Error(t, mgr.LoadString("spin", `while true do end`, 100))
	assert.False(t, mgr.Has("spin", "anything"))
}

func TestManager_Call_MissingVMOrFunction(t *testing.T) {
	mgr, logs := newTestManager(t, dice.NewCryptoSource())
	ret, err := mgr.Call(context.Background(), "nowhere", "fn", nil)
	require.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)
	assert.Equal(t, 1, logs.FilterMessage("scripting: no VM").Len())

	require.NoError(t, mgr.LoadString("empty", `-- nothing`, 0))
	ret, err = mgr.Call(context.Background(), "empty", "fn", nil)
	require.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)
}

func TestManager_Call_RuntimeErrorIsLoggedAndReturned(t *testing.T) {
	mgr, logs := newTestManager(t, dice.NewCryptoSource())
	require.NoError(t, mgr.LoadString("bad", `function boom() error("kaboom") end`, 0))

	ret, err := mgr.Call(context.Background(), "bad", "boom", nil)
	require.Error(t, err)
	assert.Equal(t, lua.LNil, ret)
	assert.Equal(t, 1, logs.FilterMessage("scripting: Lua runtime error").Len())
}

func TestManager_Call_BudgetResetsPerCall(t *testing.T) {
	mgr, _ := newTestManager(t, dice.NewCryptoSource())
	require.NoError(t, mgr.LoadString("loop", `
		function sum(n)
			local s = 0
			for i = 1, n do s = s + i end
			return s
		end
	`, 2000))

	for i := 0; i < 20; i++ {
		ret, err := mgr.Call(context.Background(), "loop", "sum", numbers(100))
		require.NoError(t, err)
		assert.Equal(t, lua.LNumber(5050), ret)
	}
	_, err := mgr.Call(context.Background(), "loop", "sum", numbers(1e6))
	assert.Error(t, err)
}

func TestManager_ConcurrentCalls(t *testing.T) {
	mgr, _ := newTestManager(t, dice.NewCryptoSource())
	require.NoError(t, mgr.LoadString("sq", `function sq(x) return x * x end`, 0))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ret, err := mgr.Call(context.Background(), "sq", "sq", numbers(float64(i)))
			assert.NoError(t, err)
			assert.Equal(t, lua.LNumber(i*i), ret)
		}(i)
	}
	wg.Wait()
}
