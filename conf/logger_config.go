// Copyright 2022-2026 The N42 Authors
// This file is part of the N42 library.
//
// The N42 library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The N42 library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the N42 library. If not, see <http://www.gnu.org/licenses/>.

package conf

// LoggerConfig controls the ledger's log output and rotation.
//
// Rotation policy:
//   - a file exceeding MaxSize MB is cut over to a new file
//   - rotated files are renamed name-timestamp.ext
//   - files beyond MaxBackups or older than MaxAge days are deleted
//   - with Compress, rotated files are gzipped
//
// Suggested settings: production MaxSize=100, MaxBackups=10, MaxAge=30,
// Compress=true; development MaxSize=10, MaxBackups=3, MaxAge=7,
// Compress=false; tight disk adds TotalSizeCap=500.
type LoggerConfig struct {
	// LogFile is the log file name; empty logs to the console only.
	// A relative name lands under DataDir/log/.
	LogFile string `json:"name" yaml:"name"`

	// Level is one of trace, debug, info, warn, error, fatal.
	Level string `json:"level" yaml:"level"`

	// MaxSize is the rotation threshold per file, in MB. Default 100.
	MaxSize int `json:"max_size" yaml:"max_size"`

	// MaxBackups is how many rotated files to keep; 0 keeps all
	// (still bounded by MaxAge). Default 10.
	MaxBackups int `json:"max_count" yaml:"max_count"`

	// MaxAge is the retention in days; 0 disables age-based deletion
	// (still bounded by MaxBackups). Default 30.
	MaxAge int `json:"max_day" yaml:"max_day"`

	// Compress gzips rotated files. Default true.
	Compress bool `json:"compress" yaml:"compress"`

	// TotalSizeCap bounds the combined size of all log files, in MB;
	// the oldest files are deleted past it. 0 disables the cap.
	TotalSizeCap int `json:"total_size_cap" yaml:"total_size_cap"`

	// LocalTime names rotated files in local time instead of UTC.
	LocalTime bool `json:"local_time" yaml:"local_time"`

	// Console mirrors file output to the console as well.
	Console bool `json:"console" yaml:"console"`

	// JSONFormat writes JSON to the file; with Console set, the console
	// mirror receives the same JSON lines. With no LogFile, console
	// output is always text.
	JSONFormat bool `json:"json_format" yaml:"json_format"`
}

// DefaultLoggerConfig returns the console-only defaults the operator CLI
// starts from.
func DefaultLoggerConfig() LoggerConfig {
	return LoggerConfig{
		LogFile:      "",
		Level:        "info",
		MaxSize:      100,
		MaxBackups:   10,
		MaxAge:       30,
		Compress:     true,
		TotalSizeCap: 0,
		LocalTime:    true,
		Console:      true,
		JSONFormat:   true,
	}
}

// Validate corrects out-of-range fields back to their defaults.
func (c *LoggerConfig) Validate() error {
	if c.MaxSize <= 0 {
		c.MaxSize = 100
	}
	if c.MaxBackups < 0 {
		c.MaxBackups = 10
	}
	if c.MaxAge < 0 {
		c.MaxAge = 30
	}
	return nil
}
