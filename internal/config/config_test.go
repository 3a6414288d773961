package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/ironsheep/pickplace/internal/detection"
	pimaging "github.com/ironsheep/pickplace/internal/imaging"
	"github.com/ironsheep/pickplace/internal/pick"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pickplace.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if cfg.Robot.Host != "192.168.1.6" {
		t.Errorf("Host: got %s", cfg.Robot.Host)
	}
	if cfg.Robot.DashboardPort != 29999 || cfg.Robot.MotionPort != 30003 {
		t.Errorf("ports: got %d/%d", cfg.Robot.DashboardPort, cfg.Robot.MotionPort)
	}
	if cfg.Robot.Strict {
		t.Error("strict mode should be off by default")
	}

	pauses, err := cfg.Robot.Pauses.Durations()
	if err != nil {
		t.Fatalf("Durations failed: %v", err)
	}
	want := pick.Pauses{AfterEnable: 500 * time.Millisecond, AfterClear: 200 * time.Millisecond, AfterMove: 500 * time.Millisecond}
	if pauses != want {
		t.Errorf("pauses: got %+v, want %+v", pauses, want)
	}

	timeout, err := cfg.Robot.TimeoutDuration()
	if err != nil || timeout != 0 {
		t.Errorf("timeout: got %v, %v; want 0, nil", timeout, err)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	for _, path := range []string{"", filepath.Join(t.TempDir(), "absent.json")} {
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load(%q) failed: %v", path, err)
		}
		if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
			t.Errorf("Load(%q) mismatch (-want +got):\n%s", path, diff)
		}
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `{"robot": {"host": "10.0.0.7", "timeout": "2s"}}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Robot.Host != "10.0.0.7" {
		t.Errorf("Host: got %s", cfg.Robot.Host)
	}
	if cfg.Robot.MotionPort != 30003 {
		t.Errorf("MotionPort should keep its default, got %d", cfg.Robot.MotionPort)
	}
	if d, _ := cfg.Robot.TimeoutDuration(); d != 2*time.Second {
		t.Errorf("timeout: got %v, want 2s", d)
	}
	if cfg.Calibration.RefWidth != 2592 {
		t.Errorf("calibration should keep its default, got ref_width %v", cfg.Calibration.RefWidth)
	}
}

func TestLoad_ClassesReplaceDefaults(t *testing.T) {
	path := writeConfig(t, `{"detection": {"classes": [
  {"color": "green", "ranges": [{"lower": {"h": 40}, "upper": {"h": 80}}]}
]}}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	want := []detection.ColorClass{{
		Color: "green",
		Ranges: []pimaging.HSVRange{{
			Lower: pimaging.HSV{H: 40},
			Upper: pimaging.HSV{H: 80},
		}},
	}}
	if diff := cmp.Diff(want, cfg.Detection.Classes); diff != "" {
		t.Errorf("classes should not inherit default fields (-want +got):\n%s", diff)
	}
}

func TestLoad_AbsentClassesKeepDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{"detection": {"min_area": 50}}`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if diff := cmp.Diff(detection.DefaultClasses(), cfg.Detection.Classes); diff != "" {
		t.Errorf("classes mismatch (-want +got):\n%s", diff)
	}
	if cfg.Detection.MinArea != 50 {
		t.Errorf("MinArea: got %v, want 50", cfg.Detection.MinArea)
	}
}

func TestLoad_ExpandsEnvironment(t *testing.T) {
	t.Setenv("CELL_ROBOT", "10.1.2.3")
	t.Setenv("CELL_Z", "-85.5")
	path := writeConfig(t, `{
  "robot": {"host": "${CELL_ROBOT}"},
  "calibration": {"x0": 1, "x1": 2, "y0": 3, "y1": 4, "ref_width": 640, "ref_height": 480, "z": ${CELL_Z}, "r": 0}
}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Robot.Host != "10.1.2.3" {
		t.Errorf("Host: got %s", cfg.Robot.Host)
	}
	if cfg.Calibration.Z != -85.5 || cfg.Calibration.RefWidth != 640 {
		t.Errorf("calibration: got %+v", cfg.Calibration)
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv(EnvRobotHost, "127.0.0.1")
	t.Setenv(EnvStrict, "true")
	path := writeConfig(t, `{"robot": {"host": "10.0.0.7", "strict": false}}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Robot.Host != "127.0.0.1" {
		t.Errorf("Host: got %s, want override", cfg.Robot.Host)
	}
	if !cfg.Robot.Strict {
		t.Error("Strict should be overridden to true")
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		env     map[string]string
		wantErr string
	}{
		{"bad json", `{"robot": `, nil, "failed to parse config"},
		{"bad port", `{"robot": {"motion_port": 70000}}`, nil, "robot.motion_port"},
		{"bad timeout", `{"robot": {"timeout": "soon"}}`, nil, "robot.timeout"},
		{"negative pause", `{"robot": {"pauses": {"after_move": "-1s"}}}`, nil, "robot.pauses.after_move"},
		{"empty classes", `{"detection": {"classes": []}}`, nil, "detection.classes"},
		{"negative min area", `{"detection": {"min_area": -1}}`, nil, "detection.min_area"},
		{"inverted band", `{"detection": {"square_band": {"min": 1.2, "max": 0.8}}}`, nil, "detection.square_band"},
		{"zero reference width", `{"calibration": {"ref_width": 0}}`, nil, "ref_width"},
		{"bad strict env", `{}`, map[string]string{EnvStrict: "maybe"}, EnvStrict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("Load should fail")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q should mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestSave_LoadBack(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Robot.Host = "10.9.8.7"
	cfg.Robot.Strict = true
	cfg.Detection.MinArea = 250
	cfg.Calibration.Z = -120

	path := filepath.Join(t.TempDir(), "saved.json")
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if diff := cmp.Diff(cfg, loaded); diff != "" {
		t.Errorf("mismatch (-saved +loaded):\n%s", diff)
	}
}

func TestSave_RejectsInvalid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Robot.Host = ""
	if err := cfg.Save(filepath.Join(t.TempDir(), "bad.json")); err == nil {
		t.Error("Save should refuse an invalid config")
	}
}
