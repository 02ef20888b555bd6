package audio

import "testing"

func newTestADSR(a, d, s, r float64) *adsr {
	env := newADSR(testSampleRate)
	env.setAttack(a)
	env.setDecay(d)
	env.setSustain(s)
	env.setRelease(r)
	return env
}

func TestADSRAttackIsMonotonic(t *testing.T) {
	env := newTestADSR(0.05, 0.2, 0.5, 0.3)
	env.trigger()
	prev := 0.0
	for env.phase == phaseAttack {
		v := env.next()
		if v < prev {
			t.Fatalf("attack decreased: %v -> %v", prev, v)
		}
		prev = v
	}
	expectEqual(t, env.phase, phaseDecay)
}

func TestADSRReachesStagesOnTime(t *testing.T) {
	env := newTestADSR(0.1, 0.2, 0.5, 0.3)
	env.trigger()
	n := 0
	for env.phase == phaseAttack {
		env.next()
		n++
	}
	attack := float64(n) / testSampleRate
	if attack < 0.09 || attack > 0.11 {
		t.Errorf("attack took %vs", attack)
	}
	n = 0
	for env.phase == phaseDecay {
		env.next()
		n++
	}
	decay := float64(n) / testSampleRate
	if decay < 0.17 || decay > 0.21 {
		t.Errorf("decay took %vs", decay)
	}
	for i := 0; i < 4800; i++ {
		env.next()
	}
	expectNearlyEqual(t, env.getValue(), 0.5)
}

func TestADSRReleaseIsMonotonicUntilIdle(t *testing.T) {
	// release time is measured from full level
	env := newTestADSR(0.01, 0.05, 1, 0.2)
	env.trigger()
	for i := 0; i < 4800; i++ {
		env.next()
	}
	env.noteOff()
	prev := env.getValue()
	n := 0
	for env.phase != phaseIdle {
		v := env.next()
		if v > prev {
			t.Fatalf("release increased: %v -> %v", prev, v)
		}
		if v > envelopeEpsilon && env.isFinished() {
			t.Fatalf("finished while value is %v", v)
		}
		prev = v
		n++
		if n > int(testSampleRate) {
			t.Fatal("release did not finish")
		}
	}
	release := float64(n) / testSampleRate
	if release < 0.195 || release > 0.22 {
		t.Errorf("release took %vs", release)
	}
	expectEqual(t, env.isFinished(), true)
	expectEqual(t, env.getValue(), 0.0)
}

func TestADSRReleaseFromSustainIsShorter(t *testing.T) {
	env := newTestADSR(0.01, 0.05, 0.5, 0.2)
	env.trigger()
	for i := 0; i < 4800; i++ {
		env.next()
	}
	env.noteOff()
	n := 0
	for env.phase != phaseIdle && n < int(testSampleRate) {
		env.next()
		n++
	}
	release := float64(n) / testSampleRate
	if release >= 0.2 || release < 0.1 {
		t.Errorf("release took %vs", release)
	}
}

func TestADSRReleaseOnIdleIsNoop(t *testing.T) {
	env := newTestADSR(0.01, 0.05, 0.6, 0.2)
	env.noteOff()
	expectEqual(t, env.phase, phaseIdle)
	expectEqual(t, env.next(), 0.0)
	expectEqual(t, env.phase, phaseIdle)
	expectEqual(t, env.isFinished(), true)
}

func TestADSRNotFinishedWhileSounding(t *testing.T) {
	env := newTestADSR(0.001, 0.001, 0, 0.001)
	env.trigger()
	for i := 0; i < 2000; i++ {
		v := env.next()
		if v > envelopeEpsilon && env.isFinished() {
			t.Fatalf("finished at %v", v)
		}
	}
}

func TestADSRResetForcesIdle(t *testing.T) {
	env := newTestADSR(0.01, 0.05, 0.6, 0.2)
	env.trigger()
	for i := 0; i < 1000; i++ {
		env.next()
	}
	env.reset()
	expectEqual(t, env.isFinished(), true)
	expectEqual(t, env.next(), 0.0)
}

func TestADSRClampsTimes(t *testing.T) {
	env := newTestADSR(-1, 100, 2, 0)
	expectEqual(t, env.attack, minStageTime)
	expectEqual(t, env.decay, maxStageTime)
	expectEqual(t, env.sustain, 1.0)
	expectEqual(t, env.release, minStageTime)
}

func TestADSRReleaseDuringAttackDoesNotRise(t *testing.T) {
	env := newTestADSR(0.001, 0.3, 0.7, 0.5)
	env.trigger()
	for i := 0; i < 20; i++ {
		env.next()
	}
	env.noteOff()
	prev := env.getValue()
	for i := 0; env.phase != phaseIdle; i++ {
		v := env.next()
		if v > prev {
			t.Fatalf("release increased at sample %d: %v -> %v (raw %v)", i, prev, v, env.raw)
		}
		prev = v
		if i > int(testSampleRate) {
			t.Fatal("release did not finish")
		}
	}
	expectEqual(t, env.isFinished(), true)
}

func TestADSRRetriggerDuringReleaseDoesNotDip(t *testing.T) {
	env := newTestADSR(0.01, 0.05, 0.8, 0.3)
	env.trigger()
	for i := 0; i < 4800; i++ {
		env.next()
	}
	env.noteOff()
	for i := 0; i < 200; i++ {
		env.next()
	}
	env.trigger()
	prev := env.getValue()
	for i := 0; env.phase == phaseAttack; i++ {
		v := env.next()
		if v < prev {
			t.Fatalf("attack decreased at sample %d: %v -> %v (raw %v)", i, prev, v, env.raw)
		}
		prev = v
		if i > int(testSampleRate) {
			t.Fatal("attack did not finish")
		}
	}
}
