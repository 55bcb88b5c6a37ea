package server

import "axesim/internal/catalog"

type modelDTO struct {
	ModelID        string          `json:"model_id"`
	DisplayName    string          `json:"display_name"`
	ASICModel      string          `json:"asic_model"`
	ASICCount      int             `json:"asic_count"`
	SmallCoreCount int             `json:"small_core_count"`
	InputVoltageV  float64         `json:"input_voltage_v"`
	Options        modelOptionsDTO `json:"options"`
	Nominal        modelNominalDTO `json:"nominal"`
}

type modelOptionsDTO struct {
	FrequencyMHz []int `json:"frequency_mhz"`
	VoltageMV    []int `json:"voltage_mv"`
}

type modelNominalDTO struct {
	VoltageMV    int     `json:"voltage_mv"`
	FrequencyMHz int     `json:"frequency_mhz"`
	HashrateGHS  float64 `json:"hashrate_ghs"`
	PowerW       float64 `json:"power_w"`
}

type scenarioDTO struct {
	ScenarioID string `json:"scenario_id"`
}

type minerSummaryDTO struct {
	MinerID    string `json:"miner_id"`
	ModelID    string `json:"model_id"`
	ScenarioID string `json:"scenario_id"`
}

type publishedDTO struct {
	MinerID  string `json:"miner_id"`
	Port     int    `json:"port"`
	InfoURL  string `json:"info_url"`
	PatchURL string `json:"patch_url"`
}

func toModelDTO(m catalog.ModelPreset) modelDTO {
	return modelDTO{
		ModelID:        m.ModelID,
		DisplayName:    m.DisplayName,
		ASICModel:      m.ASICModel,
		ASICCount:      m.ASICCount,
		SmallCoreCount: m.SmallCoreCount,
		InputVoltageV:  m.InputVoltageV,
		Options: modelOptionsDTO{
			FrequencyMHz: m.FrequencyOptionsMHz,
			VoltageMV:    m.VoltageOptionsMV,
		},
		Nominal: modelNominalDTO{
			VoltageMV:    m.StockVoltageMV,
			FrequencyMHz: m.StockFrequencyMHz,
			HashrateGHS:  m.TargetHashrateGHS,
			PowerW:       m.BasePowerW,
		},
	}
}
