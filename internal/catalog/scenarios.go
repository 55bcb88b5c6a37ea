package catalog

var scenarioOrder = []string{"healthy", "low_hashrate", "overheat", "pool_down"}

var scenarioPresets = map[string]ScenarioPreset{
	"healthy": {
		ScenarioID:         "healthy",
		HashrateMultiplier: 1.0,
		PowerMultiplier:    1.0,
	},
	"low_hashrate": {
		ScenarioID:         "low_hashrate",
		HashrateMultiplier: 0.55,
		PowerMultiplier:    1.0,
		BaseErrorPct:       floatPtr(0.35),
		RejectRate:         floatPtr(0.008),
		MinFanPct:          intPtr(62),
	},
	"overheat": {
		ScenarioID:         "overheat",
		HashrateMultiplier: 0.8,
		PowerMultiplier:    1.15,
		TempOffsetC:        20.0,
		VRTempOffsetC:      20.0,
		BaseErrorPct:       floatPtr(0.9),
		RejectRate:         floatPtr(0.02),
		MinFanPct:          intPtr(92),
	},
	"pool_down": {
		ScenarioID:         "pool_down",
		HashrateMultiplier: 0.3,
		PowerMultiplier:    1.0,
		BaseErrorPct:       floatPtr(0.5),
		RejectRate:         floatPtr(0.0),
		ForceFallback:      true,
		MinFanPct:          intPtr(60),
	},
}
