package scripting

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeonmaster/internal/game/dice"
)

type vm struct {
	mu    sync.Mutex
	L     *lua.LState
	limit int
}

// Manager owns named sandboxed VMs (one per script set) and dispatches
// function calls into them.
//
// Each VM is single-threaded; calls into the same VM are serialized while
// different VMs run concurrently. All methods are safe for concurrent use.
type Manager struct {
	mu     sync.RWMutex
	vms    map[string]*vm
	roller *dice.Roller
	logger *zap.Logger
}

// NewManager creates a Manager.
//
// Precondition: roller and logger must be non-nil.
// Postcondition: Returns a non-nil Manager with no VMs.
func NewManager(roller *dice.Roller, logger *zap.Logger) *Manager {
	return &Manager{
		vms:    make(map[string]*vm),
		roller: roller,
		logger: logger,
	}
}

// LoadDir creates a sandboxed VM called name, registers the engine module,
// then executes every *.lua file in scriptDir in lexicographic order.
// An existing VM of the same name is replaced.
//
// Precondition: name must be non-empty; scriptDir must be a readable directory.
func (m *Manager) LoadDir(name, scriptDir string, instLimit int) error {
	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q for %q: %w", scriptDir, name, err)
	}
	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	return m.load(name, instLimit, func(L *lua.LState) error {
		for _, path := range luaFiles {
			if err := L.DoFile(path); err != nil {
				return fmt.Errorf("scripting: loading %q for %q: %w", path, name, err)
			}
		}
		return nil
	})
}

// LoadString creates a VM called name from a single Lua chunk.
func (m *Manager) LoadString(name, src string, instLimit int) error {
	return m.load(name, instLimit, func(L *lua.LState) error {
		if err := L.DoString(src); err != nil {
			return fmt.Errorf("scripting: loading chunk for %q: %w", name, err)
		}
		return nil
	})
}

func (m *Manager) load(name string, instLimit int, run func(*lua.LState) error) error {
	L := NewSandboxedState()
	m.RegisterModules(L)
	if err := RunWithBudget(context.Background(), L, instLimit, func() error { return run(L) }); err != nil {
		L.Close()
		return err
	}

	m.mu.Lock()
	old := m.vms[name]
	m.vms[name] = &vm{L: L, limit: instLimit}
	m.mu.Unlock()

	if old != nil {
		old.mu.Lock()
		old.L.Close()
		old.mu.Unlock()
	}
	m.logger.Debug("scripting: vm loaded", zap.String("vm", name))
	return nil
}

// Has reports whether VM name defines a global function fn.
func (m *Manager) Has(name, fn string) bool {
	m.mu.RLock()
	v, ok := m.vms[name]
	m.mu.RUnlock()
	if !ok {
		return false
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.L.GetGlobal(fn).Type() == lua.LTFunction
}

// Call invokes the global function fn in VM name with args built by mkArgs
// on the VM's own LState. Returns (LNil, nil) if the VM or function does not
// exist. Lua runtime errors, including exhausted instruction budgets, are
// logged at Warn level and returned.
//
// Postcondition: Returns the first return value of fn, or LNil.
func (m *Manager) Call(ctx context.Context, name, fn string, mkArgs func(*lua.LState) []lua.LValue) (lua.LValue, error) {
	m.mu.RLock()
	v, ok := m.vms[name]
	m.mu.RUnlock()
	if !ok {
		m.logger.Info("scripting: no VM", zap.String("vm", name), zap.String("fn", fn))
		return lua.LNil, nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	L := v.L

	f := L.GetGlobal(fn)
	if f.Type() != lua.LTFunction {
		return lua.LNil, nil
	}
	var args []lua.LValue
	if mkArgs != nil {
		args = mkArgs(L)
	}

	err := RunWithBudget(ctx, L, v.limit, func() error {
		return L.CallByParam(lua.P{Fn: f, NRet: 1, Protect: true}, args...)
	})
	if err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("vm", name),
			zap.String("fn", fn),
			zap.Error(err),
		)
		return lua.LNil, fmt.Errorf("scripting: calling %s.%s: %w", name, fn, err)
	}
	ret := L.Get(-1)
	L.Pop(1)
	return ret, nil
}

// Close closes every VM.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name, v := range m.vms {
		v.mu.Lock()
		v.L.Close()
		v.mu.Unlock()
		delete(m.vms, name)
	}
}
