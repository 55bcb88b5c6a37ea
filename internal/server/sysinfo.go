package server

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"
	"math/rand"
	"strings"

	"axesim/internal/sim"
)

// systemInfo is the Bitaxe-style /api/system/info payload. Field names and
// types match what real devices report; consumers are known to treat some
// keys case-insensitively, so near-duplicates (ASICModel/asicModel) carry the
// same value. boardVersion stays string-typed because device detectors call
// string methods on it.
type systemInfo struct {
	ASICModel                            string         `json:"ASICModel"`
	ASICModelAlias                       string         `json:"asicModel"`
	APEnabled                            int            `json:"apEnabled"`
	AutoFanSpeed                         int            `json:"autofanspeed"`
	AxeOSVersion                         string         `json:"axeOSVersion"`
	BestDiff                             string         `json:"bestDiff"`
	BestSessionDiff                      string         `json:"bestSessionDiff"`
	BlockFound                           int            `json:"blockFound"`
	BlockHeight                          int            `json:"blockHeight"`
	BoardVersion                         string         `json:"boardVersion"`
	CoreVoltage                          int            `json:"coreVoltage"`
	CoreVoltageActual                    int            `json:"coreVoltageActual"`
	Current                              int            `json:"current"`
	Display                              int            `json:"display"`
	DisplayTimeout                       int            `json:"displayTimeout"`
	ErrorPercentage                      float64        `json:"errorPercentage"`
	ExpectedHashrate                     float64        `json:"expectedHashrate"`
	FallbackStratumExtranonceSubscribe   int            `json:"fallbackStratumExtranonceSubscribe"`
	FallbackStratumPort                  int            `json:"fallbackStratumPort"`
	FallbackStratumSuggestedDifficulty   int            `json:"fallbackStratumSuggestedDifficulty"`
	FallbackStratumURL                   string         `json:"fallbackStratumURL"`
	FallbackStratumUser                  string         `json:"fallbackStratumUser"`
	Fan2RPM                              int            `json:"fan2rpm"`
	FanRPM                               int            `json:"fanrpm"`
	Fanspeed                             float64        `json:"fanspeed"`
	FreeHeap                             int            `json:"freeHeap"`
	FreeHeapInternal                     int            `json:"freeHeapInternal"`
	FreeHeapSpiram                       int            `json:"freeHeapSpiram"`
	Frequency                            int            `json:"frequency"`
	HashRate                             float64        `json:"hashRate"`
	HashrateMonitor                      int            `json:"hashrateMonitor"`
	Hostname                             string         `json:"hostname"`
	IDFVersion                           string         `json:"idfVersion"`
	InvertScreen                         int            `json:"invertscreen"`
	IPv4                                 string         `json:"ipv4"`
	IPv6                                 string         `json:"ipv6"`
	IsPSRAMAvailable                     int            `json:"isPSRAMAvailable"`
	IsUsingFallbackStratum               int            `json:"isUsingFallbackStratum"`
	MACAddr                              string         `json:"macAddr"`
	ManualFanSpeed                       int            `json:"manualFanSpeed"`
	MaxPower                             int            `json:"maxPower"`
	MinFanSpeed                          int            `json:"minFanSpeed"`
	NetworkDifficulty                    int            `json:"networkDifficulty"`
	NominalVoltage                       int            `json:"nominalVoltage"`
	OverclockEnabled                     int            `json:"overclockEnabled"`
	OverheatMode                         int            `json:"overheat_mode"`
	PoolAddrFamily                       int            `json:"poolAddrFamily"`
	PoolDifficulty                       int            `json:"poolDifficulty"`
	Power                                float64        `json:"power"`
	ResponseTime                         int            `json:"responseTime"`
	Rotation                             int            `json:"rotation"`
	RunningPartition                     string         `json:"runningPartition"`
	ScriptSig                            string         `json:"scriptsig"`
	SharesAccepted                       int64          `json:"sharesAccepted"`
	SharesRejected                       int64          `json:"sharesRejected"`
	SharesRejectedReasons                map[string]int `json:"sharesRejectedReasons"`
	ASICCount                            int            `json:"asicCount"`
	SmallCoreCount                       int            `json:"smallCoreCount"`
	SSID                                 string         `json:"ssid"`
	StatsFrequency                       int            `json:"statsFrequency"`
	StratumExtranonceSubscribe           int            `json:"stratumExtranonceSubscribe"`
	StratumPort                          int            `json:"stratumPort"`
	StratumSuggestedDifficulty           int            `json:"stratumSuggestedDifficulty"`
	StratumURL                           string         `json:"stratumURL"`
	StratumUser                          string         `json:"stratumUser"`
	Temp                                 float64        `json:"temp"`
	Temp2                                int            `json:"temp2"`
	TempTarget                           float64        `json:"temptarget"`
	UptimeSeconds                        int64          `json:"uptimeSeconds"`
	Version                              string         `json:"version"`
	Voltage                              float64        `json:"voltage"`
	VRTemp                               int            `json:"vrTemp"`
	WiFiRSSI                             int            `json:"wifiRSSI"`
	WiFiStatus                           int            `json:"wifiStatus"`
}

// stableMAC derives a locally administered unicast MAC from the miner id, so
// a miner keeps its identity across process restarts.
func stableMAC(minerID string) string {
	digest := sha256.Sum256([]byte(minerID))
	b := digest[:6]
	parts := make([]string, len(b))
	for i, x := range b {
		if i == 0 {
			x = (x &^ 0x01) | 0x02
		}
		parts[i] = fmt.Sprintf("%02x", x)
	}
	return strings.Join(parts, ":")
}

// buildSystemInfo renders a device-compatible info payload from a telemetry
// snapshot. WiFi RSSI and response time are synthesized deterministically per
// miner so dashboards see stable, plausible radio stats.
func buildSystemInfo(miner *sim.VirtualMiner, ipv4 string) systemInfo {
	tel := miner.Telemetry()
	model := miner.Model()

	digest := sha256.Sum256([]byte(miner.ID()))
	rng := rand.New(rand.NewSource(int64(binary.BigEndian.Uint32(digest[28:32]))))
	wifiRSSI := -80 + rng.Intn(36)
	responseTime := 10 + rng.Intn(36)

	if ipv4 == "" {
		ipv4 = "0.0.0.0"
	}

	return systemInfo{
		ASICModel:         tel.ASICModel,
		ASICModelAlias:    tel.ASICModel,
		AxeOSVersion:      "virtual",
		BestDiff:          tel.BestDiff,
		BestSessionDiff:   tel.BestSessionDiff,
		BoardVersion:      "0",
		CoreVoltage:       tel.CoreVoltage,
		CoreVoltageActual: int(math.Round(tel.CoreVoltageActual)),
		Current:           int(math.Round(tel.Current)),
		ErrorPercentage:   round3(tel.ErrorPercentage),
		ExpectedHashrate:  tel.ExpectedHashrate,

		AutoFanSpeed:   tel.AutoFanSpeed,
		FanRPM:         tel.FanRPM,
		Fanspeed:       tel.Fanspeed,
		ManualFanSpeed: tel.ManualFanSpeed,
		MinFanSpeed:    tel.MinFanSpeed,

		FallbackStratumPort: tel.FallbackStratumPort,
		FallbackStratumURL:  tel.FallbackStratumURL,
		FallbackStratumUser: tel.FallbackStratumUser,
		StratumPort:         tel.StratumPort,
		StratumURL:          tel.StratumURL,
		StratumUser:         tel.StratumUser,

		IsUsingFallbackStratum: tel.IsUsingFallbackStratum,

		Frequency:      tel.Frequency,
		StatsFrequency: tel.Frequency,
		HashRate:       tel.HashRate,
		Hostname:       miner.ID(),
		IDFVersion:     "virtual",
		IPv4:           ipv4,
		MACAddr:        stableMAC(miner.ID()),
		NominalVoltage: tel.NominalVoltage,
		Power:          tel.Power,
		ResponseTime:   responseTime,

		RunningPartition: "virtual",
		SharesAccepted:   tel.SharesAccepted,
		SharesRejected:   tel.SharesRejected,

		SharesRejectedReasons: map[string]int{},

		ASICCount:      tel.ASICCount,
		SmallCoreCount: model.SmallCoreCount,
		SSID:           "virtual",
		Temp:           tel.Temp,
		TempTarget:     tel.TempTarget,
		UptimeSeconds:  tel.UptimeSeconds,
		Version:        "virtual",
		Voltage:        tel.Voltage,
		VRTemp:         int(math.Round(tel.VRTemp)),
		WiFiRSSI:       wifiRSSI,
		WiFiStatus:     3,
	}
}

func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
