// Package profiles lists the AWS profiles declared in the shared config file.
package profiles

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"

	"github.com/xdg/awsgate/internal/clog"
	"github.com/xdg/awsgate/internal/pathutil"
)

// EnvConfigFile overrides the shared config location, as for the aws CLI.
const EnvConfigFile = "AWS_CONFIG_FILE"

// Profile is one named section of the shared config file.
type Profile struct {
	Name    string
	Region  string
	RoleARN string
}

// Lister reads profiles from a shared config file.
type Lister struct {
	// Path overrides the config file. Empty means AWS_CONFIG_FILE, then
	// the SDK default (~/.aws/config).
	Path string
}

// ConfigPath returns the file List reads.
func (l *Lister) ConfigPath() string {
	if l != nil && l.Path != "" {
		return pathutil.ExpandHome(l.Path)
	}
	if env := os.Getenv(EnvConfigFile); env != "" {
		return pathutil.ExpandHome(env)
	}
	return config.DefaultSharedConfigFilename()
}

// List returns the profiles in file order. A missing file is not an
// error: it yields no profiles and a warning in the log.
func (l *Lister) List(ctx context.Context) ([]Profile, error) {
	path := l.ConfigPath()

	names, err := sectionNames(path)
	if errors.Is(err, fs.ErrNotExist) {
		clog.Warn("aws config file %s not found, no profiles available", path)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	profiles := make([]Profile, 0, len(names))
	for _, name := range names {
		p := Profile{Name: name}
		shared, err := config.LoadSharedConfigProfile(ctx, name, func(o *config.LoadSharedConfigOptions) {
			o.ConfigFiles = []string{path}
		})
		if err != nil {
			clog.Debug("profile %s: %v", name, err)
		} else {
			p.Region = shared.Region
			p.RoleARN = shared.RoleARN
		}
		profiles = append(profiles, p)
	}
	clog.Debug("loaded %d aws profiles from %s", len(profiles), path)
	return profiles, nil
}

// sectionNames returns the profile names declared in path in the order they
// first appear. "[default]" and "[profile x]" are profiles; other sections
// (sso-session, services) are not.
func sectionNames(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var names []string
	seen := make(map[string]bool)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		name, ok := profileSection(scanner.Text())
		if !ok || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return names, nil
}

func profileSection(line string) (string, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "[") {
		return "", false
	}
	end := strings.Index(line, "]")
	if end < 0 {
		return "", false
	}
	section := strings.TrimSpace(line[1:end])
	if section == "default" {
		return section, true
	}
	fields := strings.Fields(section)
	if len(fields) == 2 && fields[0] == "profile" {
		return fields[1], true
	}
	return "", false
}

// Format renders profiles for the list_aws_profiles tool.
func Format(profiles []Profile, path string) string {
	if len(profiles) == 0 {
		return "No AWS profiles found in " + path
	}
	var b strings.Builder
	b.WriteString("Available AWS profiles:")
	for _, p := range profiles {
		b.WriteString("\nProfile: ")
		b.WriteString(p.Name)
		if p.Region != "" {
			b.WriteString(" (region: " + p.Region + ")")
		}
		if p.RoleARN != "" {
			b.WriteString(" [role: " + p.RoleARN + "]")
		}
	}
	return b.String()
}
