package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func TestSplitSchedulePair(t *testing.T) {
	tests := []struct {
		name        string
		pair        string
		wantDriver  string
		wantPath    string
		expectError bool
	}{
		{
			name:       "valid pair",
			pair:       "Tony=tony_april.txt",
			wantDriver: "Tony",
			wantPath:   "tony_april.txt",
		},
		{
			name:       "spaces around parts",
			pair:       " Rich = rich.txt ",
			wantDriver: "Rich",
			wantPath:   "rich.txt",
		},
		{
			name:       "path containing equals",
			pair:       "Steve=dir/name=odd.txt",
			wantDriver: "Steve",
			wantPath:   "dir/name=odd.txt",
		},
		{
			name:        "missing separator",
			pair:        "tony_april.txt",
			expectError: true,
		},
		{
			name:        "empty driver",
			pair:        "=tony.txt",
			expectError: true,
		},
		{
			name:        "empty path",
			pair:        "Tony=",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			driver, path, err := splitSchedulePair(tt.pair)

			if tt.expectError {
				if err == nil {
					t.Errorf("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if driver != tt.wantDriver || path != tt.wantPath {
				t.Errorf("got (%q, %q), want (%q, %q)", driver, path, tt.wantDriver, tt.wantPath)
			}
		})
	}
}

func TestValidateFileExists(t *testing.T) {
	tmpDir := t.TempDir()
	validFile := filepath.Join(tmpDir, "schedule.txt")
	if err := os.WriteFile(validFile, []byte("4/1/2025 Acertus Memphis Tupelo 7654321 $92.00"), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	tests := []struct {
		name        string
		filePath    string
		expectError bool
	}{
		{
			name:     "valid file",
			filePath: validFile,
		},
		{
			name:        "empty path",
			filePath:    "",
			expectError: true,
		},
		{
			name:        "non-existent file",
			filePath:    filepath.Join(tmpDir, "missing.txt"),
			expectError: true,
		},
		{
			name:        "directory instead of file",
			filePath:    tmpDir,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateFileExists(tt.filePath, "test file")

			if tt.expectError && err == nil {
				t.Errorf("expected error but got none")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateReconcileFlags(t *testing.T) {
	tmpDir := t.TempDir()
	scheduleFile := filepath.Join(tmpDir, "tony.txt")
	bankFile := filepath.Join(tmpDir, "april.txt")

	if err := os.WriteFile(scheduleFile, []byte("4/1/2025 Acertus Memphis Tupelo 7654321 $92.00"), 0644); err != nil {
		t.Fatalf("failed to create schedule file: %v", err)
	}
	if err := os.WriteFile(bankFile, []byte("Statement Period Apr 01, 2025 - Apr 30, 2025"), 0644); err != nil {
		t.Fatalf("failed to create bank file: %v", err)
	}

	tests := []struct {
		name          string
		setupFlags    func()
		expectError   bool
		errorContains string
	}{
		{
			name: "valid flags",
			setupFlags: func() {
				viper.Set("schedule-files", []string{"Tony=" + scheduleFile})
				viper.Set("bank-files", []string{bankFile})
				viper.Set("output-format", "console")
			},
		},
		{
			name: "missing schedule files",
			setupFlags: func() {
				viper.Set("schedule-files", []string{})
				viper.Set("bank-files", []string{bankFile})
			},
			expectError:   true,
			errorContains: "at least one schedule-file is required",
		},
		{
			name: "missing bank files",
			setupFlags: func() {
				viper.Set("schedule-files", []string{"Tony=" + scheduleFile})
				viper.Set("bank-files", []string{})
			},
			expectError:   true,
			errorContains: "at least one bank-file is required",
		},
		{
			name: "malformed schedule pair",
			setupFlags: func() {
				viper.Set("schedule-files", []string{scheduleFile})
				viper.Set("bank-files", []string{bankFile})
			},
			expectError:   true,
			errorContains: "expected Driver=path",
		},
		{
			name: "invalid output format",
			setupFlags: func() {
				viper.Set("schedule-files", []string{"Tony=" + scheduleFile})
				viper.Set("bank-files", []string{bankFile})
				viper.Set("output-format", "xml")
			},
			expectError:   true,
			errorContains: "invalid output format",
		},
		{
			name: "invalid as-of date",
			setupFlags: func() {
				viper.Set("schedule-files", []string{"Tony=" + scheduleFile})
				viper.Set("bank-files", []string{bankFile})
				viper.Set("output-format", "console")
				viper.Set("as-of", "04/30/2025")
			},
			expectError:   true,
			errorContains: "invalid as-of date format",
		},
		{
			name: "negative lookback days",
			setupFlags: func() {
				viper.Set("schedule-files", []string{"Tony=" + scheduleFile})
				viper.Set("bank-files", []string{bankFile})
				viper.Set("output-format", "console")
				viper.Set("lookback-days", -1)
			},
			expectError:   true,
			errorContains: "lookback days cannot be negative",
		},
		{
			name: "negative amount tolerance",
			setupFlags: func() {
				viper.Set("schedule-files", []string{"Tony=" + scheduleFile})
				viper.Set("bank-files", []string{bankFile})
				viper.Set("output-format", "console")
				viper.Set("amount-tolerance", -0.01)
			},
			expectError:   true,
			errorContains: "amount tolerance cannot be negative",
		},
		{
			name: "output directory does not exist",
			setupFlags: func() {
				viper.Set("schedule-files", []string{"Tony=" + scheduleFile})
				viper.Set("bank-files", []string{bankFile})
				viper.Set("output-format", "json")
				viper.Set("output-file", filepath.Join(tmpDir, "no-such-dir", "report.json"))
			},
			expectError:   true,
			errorContains: "output directory does not exist",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Reset()
			tt.setupFlags()

			cmd := &cobra.Command{}
			err := validateReconcileFlags(cmd, []string{})

			if tt.expectError {
				if err == nil {
					t.Errorf("expected error but got none")
				} else if tt.errorContains != "" && !strings.Contains(err.Error(), tt.errorContains) {
					t.Errorf("expected error to contain %q, got: %v", tt.errorContains, err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestReconcileCommandFlags(t *testing.T) {
	flagNames := []string{
		"schedule-files",
		"bank-files",
		"remittance-files",
		"output-format",
		"output-file",
		"as-of",
		"lookback-days",
		"amount-tolerance",
	}

	for _, name := range flagNames {
		t.Run(name, func(t *testing.T) {
			if reconcileCmd.Flags().Lookup(name) == nil {
				t.Errorf("flag %q not found", name)
			}
		})
	}
}
