package sim

import "strconv"

// Telemetry is one self-consistent snapshot of a miner. Field names follow
// the device firmware's JSON vocabulary, including the historical aliases
// consumers match on (hashRate/hashrate, targettemp/temptarget,
// ASICModel/asicModel, fanspeed/fanSpeed).
type Telemetry struct {
	MinerID       string `json:"miner_id"`
	Timestamp     int64  `json:"timestamp"`
	UptimeSeconds int64  `json:"uptimeSeconds"`

	HashRate         float64 `json:"hashRate"`
	Hashrate         float64 `json:"hashrate"`
	ExpectedHashrate float64 `json:"expectedHashrate"`

	Power  float64 `json:"power"`
	Temp   float64 `json:"temp"`
	VRTemp float64 `json:"vrTemp"`

	Fanspeed     float64 `json:"fanspeed"`
	FanRPM       int     `json:"fanrpm"`
	AutoFanSpeed int     `json:"autofanspeed"`
	TargetTemp   float64 `json:"targettemp"`
	TempTarget   float64 `json:"temptarget"`

	CoreVoltage       int     `json:"coreVoltage"`
	CoreVoltageActual float64 `json:"coreVoltageActual"`
	Frequency         int     `json:"frequency"`
	Voltage           float64 `json:"voltage"`
	NominalVoltage    int     `json:"nominalVoltage"`
	Current           float64 `json:"current"`

	ASICModel      string `json:"ASICModel"`
	ASICModelAlias string `json:"asicModel"`
	ASICCount      int    `json:"asicCount"`
	Model          string `json:"model"`

	ErrorPercentage float64 `json:"errorPercentage"`
	SharesAccepted  int64   `json:"sharesAccepted"`
	SharesRejected  int64   `json:"sharesRejected"`
	ASICErrors      int64   `json:"asicErrors"`
	BestDiff        string  `json:"bestDiff"`
	BestSessionDiff string  `json:"bestSessionDiff"`

	StratumURL              string `json:"stratumURL"`
	StratumPort             int    `json:"stratumPort"`
	StratumUser             string `json:"stratumUser"`
	StratumPassword         string `json:"stratumPassword"`
	FallbackStratumURL      string `json:"fallbackStratumURL"`
	FallbackStratumPort     int    `json:"fallbackStratumPort"`
	FallbackStratumUser     string `json:"fallbackStratumUser"`
	FallbackStratumPassword string `json:"fallbackStratumPassword"`

	IsUsingFallback        bool   `json:"isUsingFallback"`
	IsUsingFallbackStratum int    `json:"isUsingFallbackStratum"`
	PoolState              string `json:"poolState"`
	LastSubmitMs           *int64 `json:"lastSubmitMs"`

	FanSpeed       int `json:"fanSpeed"`
	FanRpm         int `json:"fanRpm"`
	ManualFanSpeed int `json:"manualFanSpeed"`
	MinFanSpeed    int `json:"minFanSpeed"`
}

// Telemetry returns an atomic snapshot of the miner's observable state.
func (m *VirtualMiner) Telemetry() Telemetry {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()

	currentMA := 0.0
	if m.inputVoltageMV > 0 {
		currentMA = m.powerW / (m.inputVoltageMV / 1000.0) * 1000.0
	}

	reported := m.hashrateReportedGHS
	if reported == 0 {
		reported = m.hashrateGHS
	}

	var lastSubmit *int64
	if m.poolLastSubmitMS != 0 {
		ms := m.poolLastSubmitMS
		lastSubmit = &ms
	}

	autoFan := 0
	if m.fanModeAuto {
		autoFan = 1
	}
	usingFallbackInt := 0
	if m.usingFallback {
		usingFallbackInt = 1
	}

	return Telemetry{
		MinerID:       m.minerID,
		Timestamp:     now.Unix(),
		UptimeSeconds: int64(now.Sub(m.startWall).Seconds()),

		HashRate:         reported,
		Hashrate:         reported,
		ExpectedHashrate: m.expectedHashrateLocked(),

		Power:  m.powerW,
		Temp:   m.chipTempC,
		VRTemp: m.vrTempC,

		Fanspeed:     round6(float64(m.fanDutyPct) + uniform(m.rng, -0.35, 0.35)),
		FanRPM:       m.fanRPM,
		AutoFanSpeed: autoFan,
		TargetTemp:   m.targetTempC,
		TempTarget:   m.targetTempC,

		CoreVoltage:       m.coreVoltageMV,
		CoreVoltageActual: m.coreVoltageActualMV,
		Frequency:         m.frequencyMHz,
		Voltage:           m.inputVoltageMV,
		NominalVoltage:    int(m.model.InputVoltageV + 0.5),
		Current:           round6(currentMA),

		ASICModel:      m.model.ASICModel,
		ASICModelAlias: m.model.ASICModel,
		ASICCount:      m.model.ASICCount,
		Model:          m.model.DisplayName,

		ErrorPercentage: round3(m.dynamicErrorPct),
		SharesAccepted:  m.sharesAccepted,
		SharesRejected:  m.sharesRejected,
		ASICErrors:      m.asicErrors,
		BestDiff:        strconv.FormatInt(m.bestDiff, 10),
		BestSessionDiff: strconv.FormatInt(m.bestSessionDiff, 10),

		StratumURL:              m.poolPrimary.URL,
		StratumPort:             m.poolPrimary.Port,
		StratumUser:             m.poolPrimary.User,
		StratumPassword:         m.poolPrimary.Password,
		FallbackStratumURL:      m.poolFallback.URL,
		FallbackStratumPort:     m.poolFallback.Port,
		FallbackStratumUser:     m.poolFallback.User,
		FallbackStratumPassword: m.poolFallback.Password,

		IsUsingFallback:        m.usingFallback,
		IsUsingFallbackStratum: usingFallbackInt,
		PoolState:              m.poolState,
		LastSubmitMs:           lastSubmit,

		FanSpeed:       m.fanDutyPct,
		FanRpm:         m.fanRPM,
		ManualFanSpeed: m.fanDutyPct,
		MinFanSpeed:    m.model.MinFanPct,
	}
}
