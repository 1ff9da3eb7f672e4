package component

import (
	"fmt"

	"github.com/emedialab/sioviz/internal/domain/series"
	"github.com/emedialab/sioviz/internal/ports"
	"github.com/emedialab/sioviz/internal/types"
)

// JointNames are the 17 tracked joints, in column-group order of the IMU
// data matrix.
var JointNames = []string{
	"Pelvis", "T8", "Head",
	"Right Shoulder", "Right Upper Arm", "Right Forearm", "Right Hand",
	"Left Shoulder", "Left Upper Arm", "Left Forearm", "Left Hand",
	"Right Upper Leg", "Right Lower Leg", "Right Foot",
	"Left Upper Leg", "Left Lower Leg", "Left Foot",
}

// IMUConfig names the store paths for one inertial stream (accelerometer,
// gyroscope or magnetometer across all joints).
type IMUConfig struct {
	UniqueID        string
	SensorType      string // "accelerometer", "gyroscope" or "magnetometer"
	DataPath        string
	DataCounterPath string
	TimestampPath   string
	RefCounterPath  string
}

// IMU is a per-joint inertial modality. Rows are samples; each row holds
// 3 axes per joint.
type IMU struct {
	base
	sensorType string
	rows       [][]float64
}

// NewIMU loads and counter-aligns the inertial stream, mirroring the
// skeleton's matching policy.
func NewIMU(cfg IMUConfig, store ports.SensorStore, logf Logf) (*IMU, error) {
	if logf == nil {
		logf = func(string, ...any) {}
	}

	toas, err := loadFloats(store, cfg.TimestampPath)
	if err != nil {
		return nil, err
	}
	refCounters, err := store.Ints(cfg.RefCounterPath)
	if err != nil {
		return nil, err
	}
	dataCounters, err := store.Ints(cfg.DataCounterPath)
	if err != nil {
		return nil, err
	}
	rows, err := store.Matrix(cfg.DataPath)
	if err != nil {
		return nil, err
	}
	if len(rows) != len(dataCounters) {
		return nil, fmt.Errorf("imu %s: %d data rows vs %d counters", cfg.UniqueID, len(rows), len(dataCounters))
	}
	if len(toas) != len(refCounters) {
		return nil, fmt.Errorf("imu %s: %d timestamps vs %d reference counters", cfg.UniqueID, len(toas), len(refCounters))
	}

	refIdx, dataIdx := series.MatchByCounter(refCounters, dataCounters)
	if len(refIdx) == 0 {
		return nil, fmt.Errorf("%w: imu %s has no counter-matched samples", types.ErrMissingData, cfg.UniqueID)
	}
	if len(refIdx) != len(toas) || len(dataIdx) != len(rows) {
		logf("imu %s (%s): counter match kept %d of %d timestamps, %d of %d rows",
			cfg.UniqueID, cfg.SensorType, len(refIdx), len(toas), len(dataIdx), len(rows))
	}

	matchedToas := make([]float64, len(refIdx))
	matchedRows := make([][]float64, len(refIdx))
	for i := range refIdx {
		matchedToas[i] = toas[refIdx[i]]
		matchedRows[i] = rows[dataIdx[i]]
	}

	b, err := newBase(cfg.UniqueID, matchedToas)
	if err != nil {
		return nil, err
	}
	return &IMU{base: b, sensorType: cfg.SensorType, rows: matchedRows}, nil
}

func (m *IMU) SensorType() string { return m.sensorType }

// SampleAt returns the full row (all joints, all axes) at a local index,
// clamped into range.
func (m *IMU) SampleAt(i int) []float64 {
	return m.rows[clampIndex(i, len(m.rows))]
}

// JointSampleAt returns the 3-axis reading of one joint at a local index.
func (m *IMU) JointSampleAt(i, joint int) ([]float64, error) {
	row := m.SampleAt(i)
	lo := joint * 3
	if joint < 0 || lo+3 > len(row) {
		return nil, fmt.Errorf("joint %d outside row of width %d", joint, len(row))
	}
	return row[lo : lo+3], nil
}
