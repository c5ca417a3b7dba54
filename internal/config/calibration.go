package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/libmcu/hlw811x"
)

// CalibrationFile is the on-disk form of a calibration record, as produced
// by a calibration run against a reference meter.
type CalibrationFile struct {
	HFConst uint16 `yaml:"hfconst"`
	PAGain  uint16 `yaml:"pa_gain"`
	PBGain  uint16 `yaml:"pb_gain"`
	PhaseA  uint8  `yaml:"phase_a"`
	PhaseB  uint8  `yaml:"phase_b"`
	PAOS    uint16 `yaml:"paos"`
	PBOS    uint16 `yaml:"pbos"`
	RmsIAOS uint16 `yaml:"rms_iaos"`
	RmsIBOS uint16 `yaml:"rms_ibos"`
	IBGain  uint16 `yaml:"ib_gain"`
	PSGain  uint16 `yaml:"ps_gain"`
	PSOS    uint16 `yaml:"psos"`
}

// LoadCalibration reads a calibration record from a YAML file.
func LoadCalibration(path string) (hlw811x.CalibrationRecord, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return hlw811x.CalibrationRecord{}, fmt.Errorf("calibration: %w", err)
	}
	var f CalibrationFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return hlw811x.CalibrationRecord{}, fmt.Errorf("calibration: parse %s: %w", path, err)
	}
	return hlw811x.CalibrationRecord{
		HFConst: f.HFConst,
		PAGain:  f.PAGain,
		PBGain:  f.PBGain,
		PhaseA:  f.PhaseA,
		PhaseB:  f.PhaseB,
		PAOS:    f.PAOS,
		PBOS:    f.PBOS,
		RmsIAOS: f.RmsIAOS,
		RmsIBOS: f.RmsIBOS,
		IBGain:  f.IBGain,
		PSGain:  f.PSGain,
		PSOS:    f.PSOS,
	}, nil
}
