package catalog

// Frequency and voltage menus per chip family, matching what ESP-Miner
// derived firmwares surface in their tuning dropdowns.
var (
	freqBM1397 = []int{400, 425, 450, 475, 485, 500, 525, 550, 575, 600}
	freqBM1366 = []int{400, 425, 450, 475, 485, 500, 525, 550, 575}
	freqBM1368 = []int{400, 425, 450, 475, 485, 490, 500, 525, 550, 575}
	freqBM1370 = []int{400, 490, 525, 550, 600, 625}

	voltBM1397 = []int{1100, 1150, 1200, 1250, 1300, 1350, 1400, 1450, 1500}
	voltBM1366 = []int{1100, 1150, 1200, 1250, 1300}
	voltBM1368 = []int{1100, 1150, 1166, 1200, 1250, 1300}
	voltBM1370 = []int{1000, 1060, 1100, 1150, 1200, 1250}
)

var modelOrder = []string{
	"bm1397_1chip_5v",
	"bm1366_1chip_5v",
	"bm1366_6chip_12v",
	"bm1368_1chip_5v",
	"bm1368_6chip_12v",
	"bm1370_1chip_5v",
	"bm1370_2chip",
	"bm1366_4chip",
	"bm1368_4chip",
	"bm1368_8chip",
	"bm1370_4chip",
	"bm1370_8chip",
}

var modelPresets = map[string]ModelPreset{
	// Bitaxe families, per the ESP-Miner default board configs.
	"bm1397_1chip_5v": {
		ModelID:             "bm1397_1chip_5v",
		DisplayName:         "Bitaxe Max (BM1397 x1, 5V)",
		ASICModel:           "BM1397",
		ASICCount:           1,
		SmallCoreCount:      672,
		FrequencyOptionsMHz: freqBM1397,
		VoltageOptionsMV:    voltBM1397,
		StockVoltageMV:      1400,
		StockFrequencyMHz:   425,
		InputVoltageV:       5.0,
		TargetHashrateGHS:   425 * 672 * 1 / 1000.0,
		BasePowerW:          25.0,
		BaseTempC:           60.0,
		BaseVRTempC:         58.0,
		BaseFanPct:          50,
		TempTargetC:         60.0,
		FanRPMMax:           8000,
		TempPerWatt:         0.28,
		CoolingPerFanPct:    0.06,
		VRTempPerWatt:       0.22,
		VRCoolingPerFanPct:  0.05,
		VoltageReqExponent:  0.35,
		VoltageDeadbandMV:   20.0,
		VoltageMarginSoftMV: 90.0,
		BaseErrorPct:        0.15,
		BaseShareRateS:      0.010,
		RejectRate:          0.003,
		MinFanPct:           35,
	},
	"bm1366_1chip_5v": {
		ModelID:             "bm1366_1chip_5v",
		DisplayName:         "Bitaxe Ultra (BM1366 x1, 5V)",
		ASICModel:           "BM1366",
		ASICCount:           1,
		SmallCoreCount:      894,
		FrequencyOptionsMHz: freqBM1366,
		VoltageOptionsMV:    voltBM1366,
		StockVoltageMV:      1200,
		StockFrequencyMHz:   485,
		InputVoltageV:       5.0,
		TargetHashrateGHS:   485 * 894 * 1 / 1000.0,
		BasePowerW:          25.0,
		BaseTempC:           60.0,
		BaseVRTempC:         56.0,
		BaseFanPct:          50,
		TempTargetC:         60.0,
		FanRPMMax:           9000,
		TempPerWatt:         0.30,
		CoolingPerFanPct:    0.06,
		VRTempPerWatt:       0.24,
		VRCoolingPerFanPct:  0.05,
		VoltageReqExponent:  0.35,
		VoltageDeadbandMV:   20.0,
		VoltageMarginSoftMV: 90.0,
		BaseErrorPct:        0.15,
		BaseShareRateS:      0.010,
		RejectRate:          0.003,
		MinFanPct:           40,
	},
	"bm1366_6chip_12v": {
		ModelID:             "bm1366_6chip_12v",
		DisplayName:         "Bitaxe Hex (BM1366 x6, 12V)",
		ASICModel:           "BM1366",
		ASICCount:           6,
		SmallCoreCount:      894,
		FrequencyOptionsMHz: freqBM1366,
		VoltageOptionsMV:    voltBM1366,
		StockVoltageMV:      1200,
		StockFrequencyMHz:   485,
		InputVoltageV:       12.0,
		TargetHashrateGHS:   485 * 894 * 6 / 1000.0,
		BasePowerW:          90.0,
		BaseTempC:           60.0,
		BaseVRTempC:         66.0,
		BaseFanPct:          50,
		TempTargetC:         60.0,
		FanRPMMax:           12000,
		TempPerWatt:         0.28,
		CoolingPerFanPct:    0.20,
		VRTempPerWatt:       0.22,
		VRCoolingPerFanPct:  0.16,
		VoltageReqExponent:  0.35,
		VoltageDeadbandMV:   20.0,
		VoltageMarginSoftMV: 90.0,
		BaseErrorPct:        0.18,
		BaseShareRateS:      0.080,
		RejectRate:          0.003,
		MinFanPct:           55,
	},
	"bm1368_1chip_5v": {
		ModelID:             "bm1368_1chip_5v",
		DisplayName:         "Bitaxe Supra (BM1368 x1, 5V)",
		ASICModel:           "BM1368",
		ASICCount:           1,
		SmallCoreCount:      1276,
		FrequencyOptionsMHz: freqBM1368,
		VoltageOptionsMV:    voltBM1368,
		StockVoltageMV:      1166,
		StockFrequencyMHz:   490,
		InputVoltageV:       5.0,
		TargetHashrateGHS:   490 * 1276 * 1 / 1000.0,
		BasePowerW:          40.0,
		BaseTempC:           60.0,
		BaseVRTempC:         58.0,
		BaseFanPct:          50,
		TempTargetC:         60.0,
		FanRPMMax:           9000,
		TempPerWatt:         0.30,
		CoolingPerFanPct:    0.06,
		VRTempPerWatt:       0.24,
		VRCoolingPerFanPct:  0.05,
		VoltageReqExponent:  0.35,
		VoltageDeadbandMV:   20.0,
		VoltageMarginSoftMV: 90.0,
		BaseErrorPct:        0.15,
		BaseShareRateS:      0.014,
		RejectRate:          0.003,
		MinFanPct:           35,
	},
	"bm1368_6chip_12v": {
		ModelID:             "bm1368_6chip_12v",
		DisplayName:         "Bitaxe SupraHex (BM1368 x6, 12V)",
		ASICModel:           "BM1368",
		ASICCount:           6,
		SmallCoreCount:      1276,
		FrequencyOptionsMHz: freqBM1368,
		VoltageOptionsMV:    voltBM1368,
		StockVoltageMV:      1166,
		StockFrequencyMHz:   490,
		InputVoltageV:       12.0,
		TargetHashrateGHS:   490 * 1276 * 6 / 1000.0,
		BasePowerW:          120.0,
		BaseTempC:           60.0,
		BaseVRTempC:         70.0,
		BaseFanPct:          50,
		TempTargetC:         60.0,
		FanRPMMax:           14000,
		TempPerWatt:         0.28,
		CoolingPerFanPct:    0.22,
		VRTempPerWatt:       0.22,
		VRCoolingPerFanPct:  0.18,
		VoltageReqExponent:  0.35,
		VoltageDeadbandMV:   20.0,
		VoltageMarginSoftMV: 90.0,
		BaseErrorPct:        0.18,
		BaseShareRateS:      0.090,
		RejectRate:          0.003,
		MinFanPct:           50,
	},
	"bm1370_1chip_5v": {
		ModelID:             "bm1370_1chip_5v",
		DisplayName:         "Bitaxe Gamma (BM1370 x1, 5V)",
		ASICModel:           "BM1370",
		ASICCount:           1,
		SmallCoreCount:      2040,
		FrequencyOptionsMHz: freqBM1370,
		VoltageOptionsMV:    voltBM1370,
		StockVoltageMV:      1175,
		StockFrequencyMHz:   600,
		InputVoltageV:       5.0,
		TargetHashrateGHS:   600 * 2040 * 1 / 1000.0,
		BasePowerW:          20.0,
		BaseTempC:           60.0,
		BaseVRTempC:         61.0,
		BaseFanPct:          50,
		TempTargetC:         60.0,
		FanRPMMax:           15500,
		TempPerWatt:         0.35,
		CoolingPerFanPct:    0.12,
		VRTempPerWatt:       0.28,
		VRCoolingPerFanPct:  0.10,
		VoltageReqExponent:  0.30,
		VoltageDeadbandMV:   15.0,
		VoltageMarginSoftMV: 80.0,
		BaseErrorPct:        0.10,
		BaseShareRateS:      0.024,
		RejectRate:          0.0015,
		MinFanPct:           15,
	},
	"bm1370_2chip": {
		ModelID:             "bm1370_2chip",
		DisplayName:         "Bitaxe Gamma Turbo (BM1370 x2, 12V)",
		ASICModel:           "BM1370",
		ASICCount:           2,
		SmallCoreCount:      2040,
		FrequencyOptionsMHz: freqBM1370,
		VoltageOptionsMV:    voltBM1370,
		StockVoltageMV:      1175,
		StockFrequencyMHz:   600,
		InputVoltageV:       12.0,
		TargetHashrateGHS:   600 * 2040 * 2 / 1000.0,
		BasePowerW:          60.0,
		BaseTempC:           60.0,
		BaseVRTempC:         66.0,
		BaseFanPct:          50,
		TempTargetC:         60.0,
		FanRPMMax:           12000,
		TempPerWatt:         0.30,
		CoolingPerFanPct:    0.18,
		VRTempPerWatt:       0.24,
		VRCoolingPerFanPct:  0.14,
		VoltageReqExponent:  0.30,
		VoltageDeadbandMV:   15.0,
		VoltageMarginSoftMV: 80.0,
		BaseErrorPct:        0.12,
		BaseShareRateS:      0.050,
		RejectRate:          0.002,
		MinFanPct:           35,
	},

	// Community multi-ASIC boards, specs from the public board READMEs.
	"bm1366_4chip": {
		ModelID:             "bm1366_4chip",
		DisplayName:         "QAxe (BM1366 x4, 12V)",
		ASICModel:           "BM1366",
		ASICCount:           4,
		SmallCoreCount:      894,
		FrequencyOptionsMHz: freqBM1366,
		VoltageOptionsMV:    voltBM1366,
		StockVoltageMV:      1200,
		StockFrequencyMHz:   485,
		InputVoltageV:       12.0,
		TargetHashrateGHS:   485 * 894 * 4 / 1000.0,
		BasePowerW:          70.0,
		BaseTempC:           60.0,
		BaseVRTempC:         66.0,
		BaseFanPct:          50,
		TempTargetC:         60.0,
		FanRPMMax:           12000,
		TempPerWatt:         0.28,
		CoolingPerFanPct:    0.18,
		VRTempPerWatt:       0.22,
		VRCoolingPerFanPct:  0.14,
		VoltageReqExponent:  0.35,
		VoltageDeadbandMV:   20.0,
		VoltageMarginSoftMV: 90.0,
		BaseErrorPct:        0.18,
		BaseShareRateS:      0.060,
		RejectRate:          0.003,
		MinFanPct:           45,
	},
	"bm1368_4chip": {
		ModelID:             "bm1368_4chip",
		DisplayName:         "QAxe+ / NerdQAxe+ (BM1368 x4, 12V)",
		ASICModel:           "BM1368",
		ASICCount:           4,
		SmallCoreCount:      1276,
		FrequencyOptionsMHz: freqBM1368,
		VoltageOptionsMV:    voltBM1368,
		StockVoltageMV:      1166,
		StockFrequencyMHz:   490,
		InputVoltageV:       12.0,
		TargetHashrateGHS:   490 * 1276 * 4 / 1000.0,
		BasePowerW:          55.0,
		BaseTempC:           60.0,
		BaseVRTempC:         70.0,
		BaseFanPct:          50,
		TempTargetC:         60.0,
		FanRPMMax:           14000,
		TempPerWatt:         0.28,
		CoolingPerFanPct:    0.18,
		VRTempPerWatt:       0.22,
		VRCoolingPerFanPct:  0.14,
		VoltageReqExponent:  0.35,
		VoltageDeadbandMV:   20.0,
		VoltageMarginSoftMV: 90.0,
		BaseErrorPct:        0.18,
		BaseShareRateS:      0.070,
		RejectRate:          0.003,
		MinFanPct:           45,
	},
	"bm1368_8chip": {
		ModelID:             "bm1368_8chip",
		DisplayName:         "NerdOCTAXE+ (BM1368 x8, 12V)",
		ASICModel:           "BM1368",
		ASICCount:           8,
		SmallCoreCount:      1276,
		FrequencyOptionsMHz: freqBM1368,
		VoltageOptionsMV:    voltBM1368,
		StockVoltageMV:      1166,
		StockFrequencyMHz:   490,
		InputVoltageV:       12.0,
		TargetHashrateGHS:   490 * 1276 * 8 / 1000.0,
		BasePowerW:          100.0,
		BaseTempC:           60.0,
		BaseVRTempC:         74.0,
		BaseFanPct:          50,
		TempTargetC:         60.0,
		FanRPMMax:           16000,
		TempPerWatt:         0.26,
		CoolingPerFanPct:    0.24,
		VRTempPerWatt:       0.20,
		VRCoolingPerFanPct:  0.20,
		VoltageReqExponent:  0.35,
		VoltageDeadbandMV:   20.0,
		VoltageMarginSoftMV: 90.0,
		BaseErrorPct:        0.18,
		BaseShareRateS:      0.140,
		RejectRate:          0.003,
		MinFanPct:           50,
	},
	"bm1370_4chip": {
		ModelID:             "bm1370_4chip",
		DisplayName:         "NerdQAxe++ (BM1370 x4, 12V)",
		ASICModel:           "BM1370",
		ASICCount:           4,
		SmallCoreCount:      2040,
		FrequencyOptionsMHz: freqBM1370,
		VoltageOptionsMV:    voltBM1370,
		StockVoltageMV:      1175,
		StockFrequencyMHz:   600,
		InputVoltageV:       12.0,
		TargetHashrateGHS:   600 * 2040 * 4 / 1000.0,
		BasePowerW:          76.0,
		BaseTempC:           60.0,
		BaseVRTempC:         70.0,
		BaseFanPct:          50,
		TempTargetC:         60.0,
		FanRPMMax:           16000,
		TempPerWatt:         0.28,
		CoolingPerFanPct:    0.22,
		VRTempPerWatt:       0.22,
		VRCoolingPerFanPct:  0.18,
		VoltageReqExponent:  0.30,
		VoltageDeadbandMV:   15.0,
		VoltageMarginSoftMV: 80.0,
		BaseErrorPct:        0.14,
		BaseShareRateS:      0.120,
		RejectRate:          0.0025,
		MinFanPct:           45,
	},
	"bm1370_8chip": {
		ModelID:             "bm1370_8chip",
		DisplayName:         "NerdOCTAXE-Gamma (BM1370 x8, 12V)",
		ASICModel:           "BM1370",
		ASICCount:           8,
		SmallCoreCount:      2040,
		FrequencyOptionsMHz: freqBM1370,
		VoltageOptionsMV:    voltBM1370,
		StockVoltageMV:      1175,
		StockFrequencyMHz:   600,
		InputVoltageV:       12.0,
		TargetHashrateGHS:   600 * 2040 * 8 / 1000.0,
		BasePowerW:          155.0,
		BaseTempC:           60.0,
		BaseVRTempC:         74.0,
		BaseFanPct:          50,
		TempTargetC:         60.0,
		FanRPMMax:           18000,
		TempPerWatt:         0.26,
		CoolingPerFanPct:    0.30,
		VRTempPerWatt:       0.20,
		VRCoolingPerFanPct:  0.24,
		VoltageReqExponent:  0.30,
		VoltageDeadbandMV:   15.0,
		VoltageMarginSoftMV: 80.0,
		BaseErrorPct:        0.14,
		BaseShareRateS:      0.220,
		RejectRate:          0.0025,
		MinFanPct:           50,
	},
}
