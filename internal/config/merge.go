package config

// Merge overlays override onto base and returns a new Config.
// Non-empty scalar fields in override win. Catalogue extras from both are
// kept in order with duplicates removed.
func Merge(base, override *Config) *Config {
	out := *base
	if override == nil {
		return &out
	}

	mergeString(&out.Server.Transport, override.Server.Transport)
	mergeString(&out.Server.Listen, override.Server.Listen)

	mergeString(&out.AWS.Binary, override.AWS.Binary)
	mergeString(&out.AWS.Timeout, override.AWS.Timeout)
	mergeString(&out.AWS.Profile, override.AWS.Profile)
	mergeString(&out.AWS.Region, override.AWS.Region)
	mergeString(&out.AWS.ConfigFile, override.AWS.ConfigFile)

	out.Approval.Required = base.Approval.Required || override.Approval.Required
	mergeString(&out.Approval.Channel, override.Approval.Channel)
	mergeString(&out.Approval.Listen, override.Approval.Listen)
	mergeString(&out.Approval.Timeout, override.Approval.Timeout)

	mergeString(&out.Catalogue.File, override.Catalogue.File)
	out.Catalogue.Extra = mergeStrings(base.Catalogue.Extra, override.Catalogue.Extra)

	if override.Fixer.Enabled != nil {
		out.Fixer.Enabled = boolPtr(*override.Fixer.Enabled)
	}
	mergeString(&out.Fixer.Model, override.Fixer.Model)
	mergeString(&out.Fixer.Region, override.Fixer.Region)
	if override.Fixer.MaxTokens != 0 {
		out.Fixer.MaxTokens = override.Fixer.MaxTokens
	}

	if override.Audit.Enabled != nil {
		out.Audit.Enabled = boolPtr(*override.Audit.Enabled)
	}
	mergeString(&out.Audit.File, override.Audit.File)
	mergeString(&out.Audit.DB, override.Audit.DB)

	mergeString(&out.Log.File, override.Log.File)
	mergeString(&out.Log.Level, override.Log.Level)

	return &out
}

func mergeString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// mergeStrings combines two lists. Entries from b are appended to a,
// skipping duplicates.
func mergeStrings(a, b []string) []string {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(a)+len(b))
	result := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, s := range list {
			if !seen[s] {
				seen[s] = true
				result = append(result, s)
			}
		}
	}
	return result
}
