package leakwatch

import (
	"fmt"
	"runtime/debug"

	semver3 "github.com/blang/semver"
	semver "github.com/blang/semver/v4"
	"github.com/leakwatch/leakwatch/internal/update"
	"github.com/rhysd/go-github-selfupdate/selfupdate"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update leakwatch to the latest release",
		RunE: func(_ *cobra.Command, _ []string) error {
			latest, err := selfUpdate()
			if err != nil {
				return err
			}
			fmt.Println("leakwatch is at", latest)
			return nil
		},
	}
	rootCmd.AddCommand(cmd)
}

func currentVersion() semver.Version {
	v := version
	// Use build info if tag overridden at build-time
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && len(v) == 0 {
				v = s.Value
			}
		}
	}
	ver, err := semver.ParseTolerant(v)
	if err != nil {
		ver = semver.MustParse("0.0.0")
	}
	return ver
}

// selfUpdate replaces the running binary with the latest GitHub release and
// returns the version now installed.
func selfUpdate() (string, error) {
	ver := currentVersion()
	latest, err := selfupdate.UpdateSelf(semver3.MustParse(ver.String()), update.Owner+"/"+update.Repo)
	if err != nil {
		return "", err
	}
	return "v" + latest.Version.String(), nil
}
