package utils

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/joho/godotenv"
	"golang.org/x/sys/unix"
)

// ReadEnv file to map[string]string
func ReadEnv(file string) (map[string]string, error) {
	var envMap map[string]string
	var err error

	f, err := os.Open(file)
	if err != nil {
		return envMap, err
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	envMap, err = godotenv.Parse(f)
	if err != nil {
		return envMap, err
	}

	return envMap, err
}

// Token returns the API token for release listing, if any. GITHUB_TOKEN
// wins, then the env file pointed at by SWISSINSTALL_CONFIG.
func Token() string {
	if t := os.Getenv("GITHUB_TOKEN"); t != "" {
		return t
	}
	cfg := os.Getenv("SWISSINSTALL_CONFIG")
	if cfg == "" {
		return ""
	}
	env, err := ReadEnv(cfg)
	if err != nil {
		Log.Debug().Err(err).Str("file", cfg).Msg("Reading config env")
		return ""
	}
	return env["GITHUB_TOKEN"]
}

// CommandWithPath runs a command through sh with the usual sbin dirs
// appended to PATH, so fatattr and 7z resolve on minimal systems.
func CommandWithPath(c string) (string, error) {
	cmd := exec.Command("/bin/sh", "-c", c)
	cmd.Env = os.Environ()
	cmd.Env = append(cmd.Env, fmt.Sprintf("PATH=%s:/usr/bin:/usr/sbin:/bin:/sbin", os.Getenv("PATH")))
	o, err := cmd.CombinedOutput()
	return string(o), err
}

func CreateIfNotExists(location string) error {
	if _, err := os.Stat(location); os.IsNotExist(err) {
		return os.MkdirAll(location, os.ModeDir|os.ModePerm)
	}

	return nil
}

// Sync flushes everything to disk. The target is removable media, pulling
// the card before writeback finishes loses the install.
func Sync() {
	unix.Sync()
}
