// Package sim implements the closed-loop physical model behind every virtual
// miner: power, thermals, auto-fan control, undervolt/overtemp behavior,
// share generation and pool state.
package sim

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"axesim/internal/catalog"
)

// ErrInvalidPatch reports a config patch value that could not be coerced to
// the field's type. Wrapped errors name the offending field.
var ErrInvalidPatch = errors.New("invalid_patch")

// Pool state values surfaced in telemetry.
const (
	PoolStateConnecting   = "connecting"
	PoolStateAlive        = "alive"
	PoolStateReconnecting = "reconnecting"
	PoolStateFallback     = "fallback"
)

const (
	ambientC = 24.0

	// Auto-fan PI trim around the feed-forward duty.
	fanKp            = 0.9
	fanKi            = 0.06
	fanIntegratorMax = 50.0
	fanIntegratorTau = 18.0
	fanSlewPctPerS   = 18.0
	fanActuatorTau   = 2.2

	powerTau    = 6.0
	chipTempTau = 28.0
	vrTempTau   = 34.0
	fanRPMTau   = 1.6
	inputVTau   = 10.0
	hashrateTau = 5.5

	// Reported-hashrate measurement jitter: AR(1) with this correlation time
	// and a ~2.6% stationary CV on a single-ASIC board.
	hashNoiseTau   = 7.5
	hashNoiseSigma = 0.026

	throttleTempC    = 80.0
	throttlePerDegC  = 0.035
	throttleFloorPct = 0.15

	shareDiffFloor   = 10_000.0
	shareDiffCeiling = 50_000_000_000.0
)

// PoolConfig is one stratum endpoint as surfaced to callers.
type PoolConfig struct {
	URL      string
	Port     int
	User     string
	Password string
}

func defaultPrimaryPool() PoolConfig {
	return PoolConfig{URL: "stratum.pool.example", Port: 3333, User: "worker.virtual", Password: "x"}
}

func defaultFallbackPool() PoolConfig {
	return PoolConfig{URL: "backup.pool.example", Port: 3334, User: "worker.virtual", Password: "x"}
}

type freqTransition struct {
	fromExpected float64
	toExpected   float64
}

// VirtualMiner is one simulated device. All mutable state is guarded by mu;
// Tick, ApplyConfig, Restart and Telemetry are linearizable per miner.
type VirtualMiner struct {
	minerID  string
	model    catalog.ModelPreset
	scenario catalog.ScenarioPreset

	mu    sync.Mutex
	clock Clock
	rng   *rand.Rand

	warmupS     float64
	configRampS float64

	startWall      time.Time
	lastConfigWall time.Time
	lastSimMono    time.Duration

	// Setpoints.
	coreVoltageMV int
	frequencyMHz  int
	fanModeAuto   bool
	fanDutyPct    int
	targetTempC   float64

	// Derived observables.
	powerW              float64
	chipTempC           float64
	vrTempC             float64
	fanRPM              int
	inputVoltageMV      float64
	coreVoltageActualMV float64
	hashrateGHS         float64
	hashrateReportedGHS float64
	dynamicErrorPct     float64

	fanIntegrator float64
	hashrateNoise float64
	transition    *freqTransition

	poolPrimary      PoolConfig
	poolFallback     PoolConfig
	usingFallback    bool
	poolState        string
	poolStateSince   time.Time
	poolLastSubmitMS int64

	sharesAccepted  int64
	sharesRejected  int64
	asicErrors      int64
	bestDiff        int64
	bestSessionDiff int64
}

// Option mutates a miner during construction.
type Option func(*VirtualMiner)

// WithWarmup sets the boot ramp duration in seconds.
func WithWarmup(seconds float64) Option {
	return func(m *VirtualMiner) { m.warmupS = seconds }
}

// WithConfigRamp sets the hashrate ramp duration after frequency changes.
func WithConfigRamp(seconds float64) Option {
	return func(m *VirtualMiner) { m.configRampS = seconds }
}

// WithClock replaces the wall/monotonic time source (used by tests).
func WithClock(clock Clock) Option {
	return func(m *VirtualMiner) { m.clock = clock }
}

// WithRand replaces the miner's RNG stream with one seeded explicitly.
func WithRand(seed int64) Option {
	return func(m *VirtualMiner) { m.rng = rand.New(rand.NewSource(seed)) }
}

// New builds a miner at the model's stock operating point. Defaults:
// warmup 20s, config ramp 8s, RNG derived from (fleet seed, minerID).
func New(minerID string, model catalog.ModelPreset, scenario catalog.ScenarioPreset, opts ...Option) *VirtualMiner {
	m := &VirtualMiner{
		minerID:     minerID,
		model:       model,
		scenario:    scenario,
		warmupS:     20.0,
		configRampS: 8.0,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.clock == nil {
		m.clock = newSystemClock()
	}
	if m.rng == nil {
		m.rng = newMinerRand(minerID)
	}

	now := m.clock.Now()
	m.startWall = now
	m.lastConfigWall = now
	m.lastSimMono = m.clock.Mono()

	m.coreVoltageMV = model.StockVoltageMV
	m.frequencyMHz = model.StockFrequencyMHz
	m.coreVoltageActualMV = float64(model.StockVoltageMV)
	m.inputVoltageMV = model.InputVoltageV * 1000.0
	m.powerW = model.BasePowerW
	m.chipTempC = model.BaseTempC
	m.vrTempC = model.BaseVRTempC
	m.targetTempC = model.TempTargetC
	m.fanModeAuto = true

	baseFan := model.BaseFanPct
	if scenario.MinFanPct != nil && *scenario.MinFanPct > baseFan {
		baseFan = *scenario.MinFanPct
	}
	m.fanDutyPct = int(clamp(float64(baseFan), float64(model.MinFanPct), 100))
	m.fanRPM = int(math.Round(float64(model.FanRPMMax) * float64(m.fanDutyPct) / 100.0))

	m.dynamicErrorPct = m.baseErrorPct()

	m.poolPrimary = defaultPrimaryPool()
	m.poolFallback = defaultFallbackPool()
	m.usingFallback = scenario.ForceFallback
	m.poolState = PoolStateAlive
	m.poolStateSince = now

	m.bestDiff = int64(uniform(m.rng, 5_000_000, 20_000_000))
	m.bestSessionDiff = int64(uniform(m.rng, 50_000, 250_000))

	return m
}

// ID returns the miner identifier.
func (m *VirtualMiner) ID() string { return m.minerID }

// Model returns the immutable board preset.
func (m *VirtualMiner) Model() catalog.ModelPreset { return m.model }

// Scenario returns the immutable scenario preset.
func (m *VirtualMiner) Scenario() catalog.ScenarioPreset { return m.scenario }

// UptimeSeconds reports whole wall seconds since construction or Restart.
func (m *VirtualMiner) UptimeSeconds() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(m.clock.Now().Sub(m.startWall).Seconds())
}

// Restart resets counters and runtime state while preserving setpoints,
// matching a firmware reboot: frequency, voltage, fan and pools survive.
func (m *VirtualMiner) Restart() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	m.startWall = now
	m.lastConfigWall = now
	m.lastSimMono = m.clock.Mono()

	m.sharesAccepted = 0
	m.sharesRejected = 0
	m.asicErrors = 0
	m.bestSessionDiff = int64(uniform(m.rng, 50_000, 250_000))
	m.hashrateGHS = 0
	m.hashrateReportedGHS = 0
	m.hashrateNoise = 0
	m.poolState = PoolStateConnecting
	m.poolStateSince = now
	m.poolLastSubmitMS = 0
}

// configPatch holds a fully coerced ApplyConfig payload. Parsing up front
// keeps ApplyConfig atomic: a malformed field mutates nothing.
type configPatch struct {
	coreVoltage *int
	frequency   *int
	autoFan     *bool
	fanSpeed    *int
	targetTemp  *float64
	tempTarget  *float64

	primary  poolPatch
	fallback poolPatch
}

type poolPatch struct {
	url      *string
	port     *int
	user     *string
	password *string
}

// ApplyConfig applies the recognised keys of patch and reports the subset
// whose values actually changed. Unrecognised keys are ignored so callers
// built for newer firmwares keep working. A frequency change arms a hashrate
// ramp between the old and new expected nominals; a voltage-only change must
// not, so re-sent identical configs never dent the reported hashrate.
func (m *VirtualMiner) ApplyConfig(patch map[string]any) (map[string]any, error) {
	parsed, err := parsePatch(patch)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	applied := make(map[string]any)
	oldExpected := m.expectedHashrateLocked()

	voltageChanged := false
	frequencyChanged := false

	if parsed.coreVoltage != nil && *parsed.coreVoltage != m.coreVoltageMV {
		m.coreVoltageMV = *parsed.coreVoltage
		applied["coreVoltage"] = m.coreVoltageMV
		voltageChanged = true
	}
	if parsed.frequency != nil && *parsed.frequency != m.frequencyMHz {
		m.frequencyMHz = *parsed.frequency
		applied["frequency"] = m.frequencyMHz
		frequencyChanged = true
	}
	if parsed.autoFan != nil && *parsed.autoFan != m.fanModeAuto {
		m.fanModeAuto = *parsed.autoFan
		if m.fanModeAuto {
			applied["autofanspeed"] = 1
		} else {
			applied["autofanspeed"] = 0
		}
	}
	if parsed.fanSpeed != nil {
		next := int(clamp(float64(*parsed.fanSpeed), 0, 100))
		if next != m.fanDutyPct {
			m.fanDutyPct = next
			applied["fanspeed"] = m.fanDutyPct
		}
	}
	if parsed.targetTemp != nil {
		if math.Abs(*parsed.targetTemp-m.targetTempC) > 1e-9 {
			m.targetTempC = *parsed.targetTemp
			applied["targettemp"] = m.targetTempC
		}
	} else if parsed.tempTarget != nil {
		if math.Abs(*parsed.tempTarget-m.targetTempC) > 1e-9 {
			m.targetTempC = *parsed.tempTarget
			applied["temptarget"] = m.targetTempC
		}
	}

	poolReset := m.applyPoolPatch(&m.poolPrimary, parsed.primary, "stratum", applied)
	m.applyPoolPatch(&m.poolFallback, parsed.fallback, "fallbackStratum", applied)

	if frequencyChanged {
		m.transition = &freqTransition{
			fromExpected: oldExpected,
			toExpected:   m.expectedHashrateLocked(),
		}
		m.lastConfigWall = m.clock.Now()
	} else if voltageChanged {
		// Track the change time for observability, but arm no ramp.
		m.lastConfigWall = m.clock.Now()
	}

	if poolReset {
		m.sharesAccepted = 0
		m.sharesRejected = 0
		m.bestSessionDiff = int64(uniform(m.rng, 50_000, 250_000))
		m.poolState = PoolStateConnecting
		m.poolStateSince = m.clock.Now()
	}

	return applied, nil
}

// applyPoolPatch mutates pool in place and records changed fields in applied
// under the prefix's key names. It reports whether a reconnect-worthy field
// (URL, port or user) changed.
func (m *VirtualMiner) applyPoolPatch(pool *PoolConfig, patch poolPatch, prefix string, applied map[string]any) bool {
	reconnect := false
	if patch.url != nil && *patch.url != pool.URL {
		pool.URL = *patch.url
		applied[prefix+"URL"] = pool.URL
		reconnect = true
	}
	if patch.port != nil && *patch.port != pool.Port {
		pool.Port = *patch.port
		applied[prefix+"Port"] = pool.Port
		reconnect = true
	}
	if patch.user != nil && *patch.user != pool.User {
		pool.User = *patch.user
		applied[prefix+"User"] = pool.User
		reconnect = true
	}
	if patch.password != nil && *patch.password != pool.Password {
		pool.Password = *patch.password
		applied[prefix+"Password"] = pool.Password
	}
	return reconnect
}

func parsePatch(patch map[string]any) (configPatch, error) {
	var out configPatch
	for key, raw := range patch {
		switch key {
		case "coreVoltage":
			v, err := coerceInt(key, raw)
			if err != nil {
				return configPatch{}, err
			}
			out.coreVoltage = &v
		case "frequency":
			v, err := coerceInt(key, raw)
			if err != nil {
				return configPatch{}, err
			}
			out.frequency = &v
		case "autofanspeed":
			v, err := coerceInt(key, raw)
			if err != nil {
				return configPatch{}, err
			}
			enabled := v == 1
			out.autoFan = &enabled
		case "fanspeed":
			v, err := coerceInt(key, raw)
			if err != nil {
				return configPatch{}, err
			}
			out.fanSpeed = &v
		case "targettemp":
			v, err := coerceFloat(key, raw)
			if err != nil {
				return configPatch{}, err
			}
			out.targetTemp = &v
		case "temptarget":
			v, err := coerceFloat(key, raw)
			if err != nil {
				return configPatch{}, err
			}
			out.tempTarget = &v
		case "stratumURL":
			s := coerceString(raw)
			out.primary.url = &s
		case "stratumPort":
			v, err := coerceInt(key, raw)
			if err != nil {
				return configPatch{}, err
			}
			out.primary.port = &v
		case "stratumUser":
			s := coerceString(raw)
			out.primary.user = &s
		case "stratumPassword":
			s := coerceString(raw)
			out.primary.password = &s
		case "fallbackStratumURL":
			s := coerceString(raw)
			out.fallback.url = &s
		case "fallbackStratumPort":
			v, err := coerceInt(key, raw)
			if err != nil {
				return configPatch{}, err
			}
			out.fallback.port = &v
		case "fallbackStratumUser":
			s := coerceString(raw)
			out.fallback.user = &s
		case "fallbackStratumPassword":
			s := coerceString(raw)
			out.fallback.password = &s
		}
	}
	return out, nil
}

func coerceInt(field string, raw any) (int, error) {
	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("%w: field %q", ErrInvalidPatch, field)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%w: field %q", ErrInvalidPatch, field)
	}
}

func coerceFloat(field string, raw any) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: field %q", ErrInvalidPatch, field)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%w: field %q", ErrInvalidPatch, field)
	}
}

func coerceString(raw any) string {
	switch v := raw.(type) {
	case string:
		return v
	case float64:
		if v == math.Trunc(v) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// expectedHashrateLocked is the nominal hashrate at the current setpoints:
// frequency * small cores * chips / 1000, scaled by the scenario.
func (m *VirtualMiner) expectedHashrateLocked() float64 {
	return float64(m.frequencyMHz) * float64(m.model.SmallCoreCount) * float64(m.model.ASICCount) / 1000.0 *
		m.scenario.HashrateMultiplier
}

func (m *VirtualMiner) baseErrorPct() float64 {
	if m.scenario.BaseErrorPct != nil {
		return *m.scenario.BaseErrorPct
	}
	return m.model.BaseErrorPct
}

func (m *VirtualMiner) baseRejectRate() float64 {
	if m.scenario.RejectRate != nil {
		return *m.scenario.RejectRate
	}
	return m.model.RejectRate
}

func (m *VirtualMiner) effectiveMinFan() int {
	min := m.model.MinFanPct
	if m.scenario.MinFanPct != nil && *m.scenario.MinFanPct > min {
		min = *m.scenario.MinFanPct
	}
	return min
}

// Tick advances the model by the monotonic time elapsed since the previous
// tick. Stages feed each other in order: pool state, fan, power, thermals,
// fan RPM, voltages, severities, error/reject rates, throttle, hashrate,
// reported hashrate, shares, ASIC errors.
func (m *VirtualMiner) Tick() {
	m.mu.Lock()
	defer m.mu.Unlock()

	mono := m.clock.Mono()
	dt := (mono - m.lastSimMono).Seconds()
	if dt < 0 {
		dt = 0
	}
	m.lastSimMono = mono
	wallNow := m.clock.Now()

	m.stepPoolState(wallNow)

	minFan := m.effectiveMinFan()
	m.stepFan(dt, minFan)

	// Power: voltage-squared scaling with a frequency-proportional dynamic
	// share on top of a fixed baseline draw, so downclocking visibly drops
	// power (and with it, fan demand).
	freqScale := float64(m.frequencyMHz) / math.Max(1, float64(m.model.StockFrequencyMHz))
	voltScale := float64(m.coreVoltageMV) / math.Max(1, float64(m.model.StockVoltageMV))
	basePower := m.model.BasePowerW * m.scenario.PowerMultiplier
	powerTarget := basePower * voltScale * voltScale * (0.2 + 0.8*freqScale)
	powerTarget *= 1.0 + uniform(m.rng, -0.015, 0.015)
	m.powerW = round2(approach(m.powerW, powerTarget, dt, powerTau))

	// Thermals, linearised about the preset base point.
	chipTarget := m.model.BaseTempC +
		(m.powerW-m.model.BasePowerW)*m.model.TempPerWatt -
		(float64(m.fanDutyPct)-float64(m.model.BaseFanPct))*m.model.CoolingPerFanPct +
		m.scenario.TempOffsetC
	vrTarget := m.model.BaseVRTempC +
		(m.powerW-m.model.BasePowerW)*m.model.VRTempPerWatt -
		(float64(m.fanDutyPct)-float64(m.model.BaseFanPct))*m.model.VRCoolingPerFanPct +
		m.scenario.VRTempOffsetC
	chipTarget = math.Max(ambientC, chipTarget)
	vrTarget = math.Max(ambientC, vrTarget)

	m.chipTempC = round3(approach(m.chipTempC, chipTarget, dt, chipTempTau) * (1.0 + uniform(m.rng, -0.003, 0.003)))
	m.vrTempC = round3(approach(m.vrTempC, vrTarget, dt, vrTempTau) * (1.0 + uniform(m.rng, -0.003, 0.003)))

	rpmTarget := clamp(float64(m.model.FanRPMMax)*float64(m.fanDutyPct)/100.0, 0, float64(m.model.FanRPMMax))
	rpm := approach(float64(m.fanRPM), rpmTarget, dt, fanRPMTau)
	m.fanRPM = int(math.Round(rpm * (1.0 + uniform(m.rng, -0.01, 0.01))))

	nominalMV := m.model.InputVoltageV * 1000.0
	measuredMV := nominalMV * (1.0 + uniform(m.rng, -0.03, 0.03))
	m.inputVoltageMV = round3(approach(m.inputVoltageMV, measuredMV, dt, inputVTau))

	droop := m.powerW / math.Max(1, m.model.BasePowerW) * uniform(m.rng, 0, 6)
	m.coreVoltageActualMV = round3(float64(m.coreVoltageMV) - droop + uniform(m.rng, -1.5, 1.5))

	requiredMV := requiredCoreVoltageMV(
		float64(m.model.StockVoltageMV),
		float64(m.model.StockFrequencyMHz),
		float64(m.frequencyMHz),
		m.model.VoltageReqExponent,
	)
	uvSev := undervoltSeverity(requiredMV, m.coreVoltageActualMV, m.model.VoltageMarginSoftMV, m.model.VoltageDeadbandMV)
	tempSev := clamp((m.chipTempC-m.targetTempC)/25.0, 0, 1)

	// Percent units: 0.25 means 0.25%.
	m.dynamicErrorPct = clamp(m.baseErrorPct()+uvSev*uvSev*6.0+tempSev*1.5, 0, 100)
	rejectProb := clamp(m.baseRejectRate()+uvSev*0.05+tempSev*0.03, 0, 0.35)

	throttle := 1.0
	if m.chipTempC >= throttleTempC {
		throttle = clamp(1.0-(m.chipTempC-throttleTempC)*throttlePerDegC, throttleFloorPct, 1.0)
	}

	targetHash := m.expectedHashrateLocked()
	if m.transition != nil {
		if m.configRampS <= 0 {
			m.transition = nil
		} else {
			elapsed := math.Max(0, wallNow.Sub(m.lastConfigWall).Seconds())
			r := math.Min(1, elapsed/m.configRampS)
			targetHash = m.transition.fromExpected + (m.transition.toExpected-m.transition.fromExpected)*r
			if r >= 1 {
				m.transition = nil
			}
		}
	}

	effective := targetHash * throttle * clamp(1.0-uvSev*0.65-tempSev*0.25, 0, 1)
	if m.warmupS > 0 {
		effective *= math.Min(1, wallNow.Sub(m.startWall).Seconds()/m.warmupS)
	}
	effective *= 1.0 + uniform(m.rng, -0.02, 0.02)
	m.hashrateGHS = round2(math.Max(0, approach(m.hashrateGHS, effective, dt, hashrateTau)))

	// Reported hashrate: correlated measurement jitter, larger on single-ASIC
	// boards and when undervolted or running hot.
	sigma := hashNoiseSigma * (1.0 + uvSev*1.25 + tempSev*0.6) / math.Sqrt(math.Max(1, float64(m.model.ASICCount)))
	alpha := math.Exp(-math.Max(0, dt) / hashNoiseTau)
	innovation := math.Sqrt(math.Max(0, 1.0-alpha*alpha))
	m.hashrateNoise = m.hashrateNoise*alpha + m.rng.NormFloat64()*sigma*innovation
	m.hashrateReportedGHS = round2(math.Max(0, m.hashrateGHS*clamp(1.0+m.hashrateNoise, 0, 1.25)))

	rejectedDelta := m.stepShares(wallNow, dt, targetHash, rejectProb)

	hwErr := poisson(m.rng, (uvSev*3.0+tempSev*1.0)*dt) + int(float64(rejectedDelta)*0.15)
	m.asicErrors += int64(hwErr)
}

func (m *VirtualMiner) stepPoolState(wallNow time.Time) {
	if m.scenario.ScenarioID == "pool_down" {
		if wallNow.Sub(m.startWall).Seconds() < 8.0 {
			m.poolState = PoolStateReconnecting
		} else {
			m.poolState = PoolStateFallback
		}
		m.usingFallback = true
		return
	}
	if m.poolState == PoolStateConnecting && wallNow.Sub(m.poolStateSince).Seconds() >= 3.0 {
		m.poolState = PoolStateAlive
	}
}

// stepFan runs the auto-fan controller: a feed-forward duty solved from the
// calibrated steady-state model, trimmed by a small PI loop, then passed
// through slew-limited first-order actuator dynamics. Manual mode only
// enforces the duty envelope.
func (m *VirtualMiner) stepFan(dt float64, minFan int) {
	if !m.fanModeAuto {
		m.fanDutyPct = int(math.Round(clamp(float64(m.fanDutyPct), float64(minFan), 100)))
		return
	}

	cooling := math.Max(0.01, m.model.CoolingPerFanPct)
	baseTemp := m.model.BaseTempC + m.scenario.TempOffsetC
	basePower := m.model.BasePowerW * m.scenario.PowerMultiplier
	chipNoFan := baseTemp + (m.powerW-basePower)*m.model.TempPerWatt
	ff := float64(m.model.BaseFanPct) + (chipNoFan-m.targetTempC)/cooling

	err := m.chipTempC - m.targetTempC
	duty := float64(m.fanDutyPct)
	atMin := duty <= float64(minFan)+1e-6
	atMax := duty >= 100.0-1e-6
	if (atMax && err > 0) || (atMin && err < 0) {
		// Saturated in the direction of the error: bleed the integrator
		// instead of winding it up.
		m.fanIntegrator = approach(m.fanIntegrator, 0, dt, fanIntegratorTau)
	} else {
		m.fanIntegrator = clamp(m.fanIntegrator+err*dt, -fanIntegratorMax, fanIntegratorMax)
	}

	desired := clamp(ff+fanKp*err+fanKi*m.fanIntegrator, float64(minFan), 100)
	duty = rateLimit(duty, desired, dt, fanSlewPctPerS)
	duty = approach(duty, desired, dt, fanActuatorTau)
	m.fanDutyPct = int(math.Round(clamp(duty, float64(minFan), 100)))
}

// stepShares draws share submissions for this tick and returns the rejected
// count, which feeds the ASIC error accumulator.
func (m *VirtualMiner) stepShares(wallNow time.Time, dt, targetHash, rejectProb float64) int {
	if m.model.BaseShareRateS <= 0 || targetHash <= 0 || m.scenario.ScenarioID == "pool_down" {
		return 0
	}

	shareRate := m.model.BaseShareRateS * (m.hashrateGHS / targetHash)
	total := poisson(m.rng, math.Max(0, shareRate)*dt)

	accepted := 0
	rejected := 0
	for i := 0; i < total; i++ {
		u := m.rng.Float64()
		if u < rejectProb {
			rejected++
			continue
		}
		accepted++
		u = math.Max(1e-9, m.rng.Float64())
		// Heavy-tailed share difficulty: u^-3 gives a Pareto-like tail so
		// occasional large best-diff jumps look like the real thing.
		candidate := int64(clamp(math.Pow(u, -3.0)*shareDiffFloor, shareDiffFloor, shareDiffCeiling))
		if candidate > m.bestSessionDiff {
			m.bestSessionDiff = candidate
		}
		if candidate > m.bestDiff {
			m.bestDiff = candidate
		}
	}

	m.sharesAccepted += int64(accepted)
	m.sharesRejected += int64(rejected)
	if accepted > 0 {
		m.poolLastSubmitMS = wallNow.UnixMilli()
	}
	return rejected
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
func round6(v float64) float64 { return math.Round(v*1e6) / 1e6 }
