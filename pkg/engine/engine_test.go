package engine_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keyrx/pkg/engine"
	"keyrx/pkg/keycode"
	"keyrx/pkg/krx"
)

func mustBlob(t *testing.T, cfg *krx.Config) []byte {
	t.Helper()
	blob, err := krx.Encode(cfg)
	require.NoError(t, err)
	return blob
}

func loadEngine(t *testing.T, cfg *krx.Config) *engine.Engine {
	t.Helper()
	eng := engine.New()
	require.NoError(t, eng.LoadConfig(mustBlob(t, cfg)))
	return eng
}

func scan(t *testing.T, k keycode.KeyCode) keycode.ScanCode {
	t.Helper()
	sc, ok := keycode.ToScanCode(k)
	require.True(t, ok, "no scan code for %s", k)
	return sc
}

func press(t *testing.T, eng *engine.Engine, k keycode.KeyCode, ts uint64) []engine.Output {
	t.Helper()
	out := eng.ProcessEvent(scan(t, k), engine.Press, ts)
	return append([]engine.Output{}, out.Slice()...)
}

func release(t *testing.T, eng *engine.Engine, k keycode.KeyCode, ts uint64) []engine.Output {
	t.Helper()
	out := eng.ProcessEvent(scan(t, k), engine.Release, ts)
	return append([]engine.Output{}, out.Slice()...)
}

func keyOut(k keycode.KeyCode, e engine.Edge) engine.Output {
	return engine.Output{Kind: engine.OutKey, Key: k, Edge: e}
}

func TestNoConfigPassThrough(t *testing.T) {
	eng := engine.New()
	assert.False(t, eng.HasConfig())

	out := press(t, eng, keycode.KeyA, 0)
	assert.Equal(t, []engine.Output{keyOut(keycode.KeyA, engine.Press)}, out)

	out = release(t, eng, keycode.KeyA, 1000)
	assert.Equal(t, []engine.Output{keyOut(keycode.KeyA, engine.Release)}, out)
}

func TestUnknownScanCodePassThrough(t *testing.T) {
	eng := loadEngine(t, &krx.Config{RuleSets: []krx.RuleSet{{Selector: "*"}}})

	raw := keycode.ScanCode{Code: 0x59}
	out := eng.ProcessEvent(raw, engine.Press, 0)
	require.Equal(t, 1, out.Len())
	assert.Equal(t, engine.Output{Kind: engine.OutPassThrough, Scan: raw, Edge: engine.Press}, out.At(0))
}

func TestUnmappedKeyPassThrough(t *testing.T) {
	eng := loadEngine(t, &krx.Config{RuleSets: []krx.RuleSet{{
		Selector: "*",
		Mappings: []krx.Mapping{{Kind: krx.MapSimple, From: keycode.KeyA, To: keycode.KeyB}},
	}}})

	out := press(t, eng, keycode.KeyQ, 0)
	assert.Equal(t, []engine.Output{keyOut(keycode.KeyQ, engine.Press)}, out)
	out = release(t, eng, keycode.KeyQ, 1000)
	assert.Equal(t, []engine.Output{keyOut(keycode.KeyQ, engine.Release)}, out)
}

func TestSimpleRemap(t *testing.T) {
	eng := loadEngine(t, &krx.Config{RuleSets: []krx.RuleSet{{
		Selector: "*",
		Mappings: []krx.Mapping{{Kind: krx.MapSimple, From: keycode.KeyA, To: keycode.KeyB}},
	}}})

	out := press(t, eng, keycode.KeyA, 0)
	assert.Equal(t, []engine.Output{keyOut(keycode.KeyB, engine.Press)}, out)

	out = release(t, eng, keycode.KeyA, 1000)
	assert.Equal(t, []engine.Output{keyOut(keycode.KeyB, engine.Release)}, out)
}

func TestModifierMapping(t *testing.T) {
	eng := loadEngine(t, &krx.Config{RuleSets: []krx.RuleSet{{
		Selector: "*",
		Mappings: []krx.Mapping{{Kind: krx.MapModifier, From: keycode.KeyCapsLock, ID: 7}},
	}}})

	out := press(t, eng, keycode.KeyCapsLock, 0)
	assert.Equal(t, []engine.Output{{Kind: engine.OutActivateModifier, ID: 7}}, out)
	assert.True(t, eng.ModifierActive(7))

	out = release(t, eng, keycode.KeyCapsLock, 1000)
	assert.Equal(t, []engine.Output{{Kind: engine.OutDeactivateModifier, ID: 7}}, out)
	assert.False(t, eng.ModifierActive(7))
}

func TestLockTogglesOnPressOnly(t *testing.T) {
	eng := loadEngine(t, &krx.Config{RuleSets: []krx.RuleSet{{
		Selector: "*",
		Mappings: []krx.Mapping{{Kind: krx.MapLock, From: keycode.KeyScrollLock, ID: 2}},
	}}})

	out := press(t, eng, keycode.KeyScrollLock, 0)
	assert.Equal(t, []engine.Output{{Kind: engine.OutToggleLock, ID: 2}}, out)
	assert.True(t, eng.LockActive(2))

	// Release is silent and leaves the lock alone.
	out = release(t, eng, keycode.KeyScrollLock, 1000)
	assert.Empty(t, out)
	assert.True(t, eng.LockActive(2))

	out = press(t, eng, keycode.KeyScrollLock, 2000)
	assert.Equal(t, []engine.Output{{Kind: engine.OutToggleLock, ID: 2}}, out)
	assert.False(t, eng.LockActive(2))

	out = release(t, eng, keycode.KeyScrollLock, 3000)
	assert.Empty(t, out)
}

func TestModifiedOutput(t *testing.T) {
	eng := loadEngine(t, &krx.Config{RuleSets: []krx.RuleSet{{
		Selector: "*",
		Mappings: []krx.Mapping{{
			Kind: krx.MapModifiedOutput, From: keycode.KeyA, To: keycode.Key2,
			Flags: krx.FlagCtrl | krx.FlagShift,
		}},
	}}})

	out := press(t, eng, keycode.KeyA, 0)
	assert.Equal(t, []engine.Output{
		keyOut(keycode.KeyLeftCtrl, engine.Press),
		keyOut(keycode.KeyLeftShift, engine.Press),
		keyOut(keycode.Key2, engine.Press),
	}, out)

	// Release unwinds in reverse order.
	out = release(t, eng, keycode.KeyA, 1000)
	assert.Equal(t, []engine.Output{
		keyOut(keycode.Key2, engine.Release),
		keyOut(keycode.KeyLeftShift, engine.Release),
		keyOut(keycode.KeyLeftCtrl, engine.Release),
	}, out)
}

func TestLayerActivation(t *testing.T) {
	eng := loadEngine(t, &krx.Config{RuleSets: []krx.RuleSet{{
		Selector: "*",
		Mappings: []krx.Mapping{{Kind: krx.MapModifier, From: keycode.KeyCapsLock, ID: 0}},
		Layers: []krx.Layer{{
			Conditions: []krx.Condition{{Kind: krx.CondModifier, ID: 0}},
			Mappings:   []krx.Mapping{{Kind: krx.MapSimple, From: keycode.KeyH, To: keycode.KeyLeft}},
		}},
	}}})

	// Layer inactive: H passes through.
	out := press(t, eng, keycode.KeyH, 0)
	assert.Equal(t, []engine.Output{keyOut(keycode.KeyH, engine.Press)}, out)
	release(t, eng, keycode.KeyH, 1000)

	// Layer active: H becomes Left.
	press(t, eng, keycode.KeyCapsLock, 2000)
	out = press(t, eng, keycode.KeyH, 3000)
	assert.Equal(t, []engine.Output{keyOut(keycode.KeyLeft, engine.Press)}, out)
	out = release(t, eng, keycode.KeyH, 4000)
	assert.Equal(t, []engine.Output{keyOut(keycode.KeyLeft, engine.Release)}, out)
	release(t, eng, keycode.KeyCapsLock, 5000)
}

func TestLayerReleaseMatchesPress(t *testing.T) {
	eng := loadEngine(t, &krx.Config{RuleSets: []krx.RuleSet{{
		Selector: "*",
		Mappings: []krx.Mapping{{Kind: krx.MapModifier, From: keycode.KeyCapsLock, ID: 0}},
		Layers: []krx.Layer{{
			Conditions: []krx.Condition{{Kind: krx.CondModifier, ID: 0}},
			Mappings:   []krx.Mapping{{Kind: krx.MapSimple, From: keycode.KeyH, To: keycode.KeyLeft}},
		}},
	}}})

	// Press H under the layer, release the layer modifier, then release
	// H: the release must undo the press that actually happened (Left),
	// not re-resolve to a pass-through H.
	press(t, eng, keycode.KeyCapsLock, 0)
	out := press(t, eng, keycode.KeyH, 1000)
	assert.Equal(t, []engine.Output{keyOut(keycode.KeyLeft, engine.Press)}, out)

	release(t, eng, keycode.KeyCapsLock, 2000)
	out = release(t, eng, keycode.KeyH, 3000)
	assert.Equal(t, []engine.Output{keyOut(keycode.KeyLeft, engine.Release)}, out)
}

func TestLayerSpecificity(t *testing.T) {
	eng := loadEngine(t, &krx.Config{RuleSets: []krx.RuleSet{{
		Selector: "*",
		Mappings: []krx.Mapping{
			{Kind: krx.MapModifier, From: keycode.KeyCapsLock, ID: 0},
			{Kind: krx.MapModifier, From: keycode.KeyTab, ID: 1},
		},
		Layers: []krx.Layer{
			{
				Conditions: []krx.Condition{{Kind: krx.CondModifier, ID: 0}},
				Mappings:   []krx.Mapping{{Kind: krx.MapSimple, From: keycode.KeyJ, To: keycode.KeyDown}},
			},
			{
				Conditions: []krx.Condition{
					{Kind: krx.CondModifier, ID: 0},
					{Kind: krx.CondModifier, ID: 1},
				},
				Mappings: []krx.Mapping{{Kind: krx.MapSimple, From: keycode.KeyJ, To: keycode.KeyPageDown}},
			},
		},
	}}})

	// Only the single-condition layer matches.
	press(t, eng, keycode.KeyCapsLock, 0)
	out := press(t, eng, keycode.KeyJ, 1000)
	assert.Equal(t, []engine.Output{keyOut(keycode.KeyDown, engine.Press)}, out)
	release(t, eng, keycode.KeyJ, 2000)

	// Both match: the larger condition set wins regardless of
	// declaration order.
	press(t, eng, keycode.KeyTab, 3000)
	out = press(t, eng, keycode.KeyJ, 4000)
	assert.Equal(t, []engine.Output{keyOut(keycode.KeyPageDown, engine.Press)}, out)
}

func TestLayerEqualSpecificityDeclarationOrder(t *testing.T) {
	eng := loadEngine(t, &krx.Config{RuleSets: []krx.RuleSet{{
		Selector: "*",
		Mappings: []krx.Mapping{{Kind: krx.MapModifier, From: keycode.KeyCapsLock, ID: 0}},
		Layers: []krx.Layer{
			{
				Conditions: []krx.Condition{{Kind: krx.CondModifier, ID: 0}},
				Mappings:   []krx.Mapping{{Kind: krx.MapSimple, From: keycode.KeyJ, To: keycode.KeyDown}},
			},
			{
				Conditions: []krx.Condition{{Kind: krx.CondModifier, ID: 0}},
				Mappings:   []krx.Mapping{{Kind: krx.MapSimple, From: keycode.KeyJ, To: keycode.KeyUp}},
			},
		},
	}}})

	press(t, eng, keycode.KeyCapsLock, 0)
	out := press(t, eng, keycode.KeyJ, 1000)
	assert.Equal(t, []engine.Output{keyOut(keycode.KeyDown, engine.Press)}, out)
}

func TestLayerWithoutOverrideDoesNotShadowBase(t *testing.T) {
	eng := loadEngine(t, &krx.Config{RuleSets: []krx.RuleSet{{
		Selector: "*",
		Mappings: []krx.Mapping{
			{Kind: krx.MapModifier, From: keycode.KeyCapsLock, ID: 0},
			{Kind: krx.MapSimple, From: keycode.KeyJ, To: keycode.KeyK},
		},
		Layers: []krx.Layer{{
			Conditions: []krx.Condition{{Kind: krx.CondModifier, ID: 0}},
			Mappings:   []krx.Mapping{{Kind: krx.MapSimple, From: keycode.KeyH, To: keycode.KeyLeft}},
		}},
	}}})

	press(t, eng, keycode.KeyCapsLock, 0)
	out := press(t, eng, keycode.KeyJ, 1000)
	assert.Equal(t, []engine.Output{keyOut(keycode.KeyK, engine.Press)}, out)
}

func TestLockConditionedLayer(t *testing.T) {
	eng := loadEngine(t, &krx.Config{RuleSets: []krx.RuleSet{{
		Selector: "*",
		Mappings: []krx.Mapping{{Kind: krx.MapLock, From: keycode.KeyScrollLock, ID: 4}},
		Layers: []krx.Layer{{
			Conditions: []krx.Condition{{Kind: krx.CondLock, ID: 4}},
			Mappings:   []krx.Mapping{{Kind: krx.MapSimple, From: keycode.KeyW, To: keycode.KeyUp}},
		}},
	}}})

	// Lock layers persist after the toggling key is released.
	press(t, eng, keycode.KeyScrollLock, 0)
	release(t, eng, keycode.KeyScrollLock, 1000)

	out := press(t, eng, keycode.KeyW, 2000)
	assert.Equal(t, []engine.Output{keyOut(keycode.KeyUp, engine.Press)}, out)
	release(t, eng, keycode.KeyW, 3000)

	press(t, eng, keycode.KeyScrollLock, 4000)
	release(t, eng, keycode.KeyScrollLock, 5000)

	out = press(t, eng, keycode.KeyW, 6000)
	assert.Equal(t, []engine.Output{keyOut(keycode.KeyW, engine.Press)}, out)
}

func TestDeviceRuleSetSelection(t *testing.T) {
	eng := loadEngine(t, &krx.Config{RuleSets: []krx.RuleSet{
		{
			Selector: "*",
			Mappings: []krx.Mapping{{Kind: krx.MapSimple, From: keycode.KeyA, To: keycode.KeyC}},
		},
		{
			Selector: "usb-kbd",
			Mappings: []krx.Mapping{{Kind: krx.MapSimple, From: keycode.KeyA, To: keycode.KeyB}},
		},
	}})

	out := eng.ProcessDeviceEvent("usb-kbd", scan(t, keycode.KeyA), engine.Press, 0)
	require.Equal(t, 1, out.Len())
	assert.Equal(t, keyOut(keycode.KeyB, engine.Press), out.At(0))
	eng.ProcessDeviceEvent("usb-kbd", scan(t, keycode.KeyA), engine.Release, 1000)

	out = eng.ProcessDeviceEvent("ps2-kbd", scan(t, keycode.KeyA), engine.Press, 2000)
	require.Equal(t, 1, out.Len())
	assert.Equal(t, keyOut(keycode.KeyC, engine.Press), out.At(0))
}

func TestDeviceWithoutRuleSetPassesThrough(t *testing.T) {
	eng := loadEngine(t, &krx.Config{RuleSets: []krx.RuleSet{{
		Selector: "usb-kbd",
		Mappings: []krx.Mapping{{Kind: krx.MapSimple, From: keycode.KeyA, To: keycode.KeyB}},
	}}})

	out := eng.ProcessDeviceEvent("ps2-kbd", scan(t, keycode.KeyA), engine.Press, 0)
	require.Equal(t, 1, out.Len())
	assert.Equal(t, keyOut(keycode.KeyA, engine.Press), out.At(0))
}

func TestLoadConfigRejectsAndKeepsOld(t *testing.T) {
	eng := loadEngine(t, &krx.Config{RuleSets: []krx.RuleSet{{
		Selector: "*",
		Mappings: []krx.Mapping{{Kind: krx.MapSimple, From: keycode.KeyA, To: keycode.KeyB}},
	}}})

	err := eng.LoadConfig([]byte("not a profile"))
	require.Error(t, err)
	assert.True(t, eng.HasConfig())

	// The previous configuration is still in effect.
	out := press(t, eng, keycode.KeyA, 0)
	assert.Equal(t, []engine.Output{keyOut(keycode.KeyB, engine.Press)}, out)
}

func TestLoadConfigResetsTransientState(t *testing.T) {
	cfg := &krx.Config{RuleSets: []krx.RuleSet{{
		Selector: "*",
		Mappings: []krx.Mapping{
			{Kind: krx.MapModifier, From: keycode.KeyCapsLock, ID: 0},
			{Kind: krx.MapLock, From: keycode.KeyScrollLock, ID: 1},
		},
	}}}
	eng := loadEngine(t, cfg)

	press(t, eng, keycode.KeyCapsLock, 0)
	press(t, eng, keycode.KeyScrollLock, 1000)
	require.True(t, eng.ModifierActive(0))
	require.True(t, eng.LockActive(1))

	require.NoError(t, eng.LoadConfig(mustBlob(t, cfg)))
	assert.False(t, eng.ModifierActive(0))
	assert.False(t, eng.LockActive(1))
}

func TestResetIsIdempotent(t *testing.T) {
	eng := loadEngine(t, &krx.Config{RuleSets: []krx.RuleSet{{
		Selector: "*",
		Mappings: []krx.Mapping{{Kind: krx.MapModifier, From: keycode.KeyCapsLock, ID: 0}},
	}}})

	press(t, eng, keycode.KeyCapsLock, 0)
	require.True(t, eng.ModifierActive(0))

	eng.Reset()
	assert.False(t, eng.ModifierActive(0))
	eng.Reset()
	assert.False(t, eng.ModifierActive(0))
	assert.True(t, eng.HasConfig())
}

func TestConcurrentSwapAndProcess(t *testing.T) {
	cfgA := &krx.Config{RuleSets: []krx.RuleSet{{
		Selector: "*",
		Mappings: []krx.Mapping{{Kind: krx.MapSimple, From: keycode.KeyA, To: keycode.KeyB}},
	}}}
	cfgB := &krx.Config{RuleSets: []krx.RuleSet{{
		Selector: "*",
		Mappings: []krx.Mapping{{Kind: krx.MapSimple, From: keycode.KeyA, To: keycode.KeyC}},
	}}}
	blobA := mustBlob(t, cfgA)
	blobB := mustBlob(t, cfgB)

	eng := engine.New()
	require.NoError(t, eng.LoadConfig(blobA))
	sc := scan(t, keycode.KeyA)

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				out := eng.ProcessEvent(sc, engine.Press, uint64(i))
				// Every observed output comes from exactly one of the
				// two configurations, never a mix or a miss.
				if assert.Equal(t, 1, out.Len()) {
					k := out.At(0).Key
					assert.Contains(t, []keycode.KeyCode{keycode.KeyB, keycode.KeyC}, k)
				}
				eng.ProcessEvent(sc, engine.Release, uint64(i)+1)
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			blob := blobA
			if i%2 == 1 {
				blob = blobB
			}
			assert.NoError(t, eng.LoadConfig(blob))
		}
	}()
	wg.Wait()
}

func TestSharedEngineSingleton(t *testing.T) {
	assert.Same(t, engine.Shared(), engine.Shared())
}
