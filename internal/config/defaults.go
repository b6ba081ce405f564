package config

// Starter banks written by "config init" and used when a config sets none.

var DefaultPublicMailServices = []string{
	"gmail.com", "googlemail.com", "outlook.com", "hotmail.com", "live.com",
	"yahoo.com", "icloud.com", "me.com", "aol.com", "protonmail.com",
	"qq.com", "foxmail.com", "163.com", "126.com", "139.com", "yeah.net",
	"sina.com", "sina.cn", "sohu.com", "aliyun.com",
}

var DefaultExcludeRepositoryRules = []string{
	`github\.io`,
	`(^|/)(blog|hexo|hugo|jekyll)`,
	`(^|/)(awesome|leak|leaks|gsil|hawkeye|scan|scanner|crawler|spider)(/|-|$)`,
	`(^|/)(test|tests|demo|demos|example|examples|sample|samples)/`,
	`(^|/)(tutorial|course|homework|exercise)`,
}

var DefaultExcludeRepositoryGlobs = []string{
	"**/node_modules/**",
	"**/vendor/**",
	"**/*.min.js",
}

var DefaultExcludeCodesRules = []string{
	`(?i)example\.(com|org|net)`,
	`(?i)your[_-]?(password|passwd|token|secret|key)`,
	`(?i)(password|passwd|secret|token)\s*[:=]\s*["']?(x{3,}|\*{3,}|changeme|123456|password)["']?\s*$`,
	`localhost|127\.0\.0\.1`,
	`\$\{[A-Za-z0-9_.]+\}`,
}

// Publics returns the public mail services, defaulting to the starter bank.
func (fc FileConfig) Publics() []string {
	if fc.PublicMailServices != nil {
		return fc.PublicMailServices
	}
	return DefaultPublicMailServices
}

// RepositoryRules returns the repository exclusion regexes, defaulting to the
// starter bank.
func (fc FileConfig) RepositoryRules() []string {
	if fc.ExcludeRepositoryRules != nil {
		return fc.ExcludeRepositoryRules
	}
	return DefaultExcludeRepositoryRules
}

func (fc FileConfig) RepositoryGlobs() []string {
	if fc.ExcludeRepositoryGlobs != nil {
		return fc.ExcludeRepositoryGlobs
	}
	return DefaultExcludeRepositoryGlobs
}

// CodesRules returns the false-positive bank, defaulting to the starter bank.
func (fc FileConfig) CodesRules() []string {
	if fc.ExcludeCodesRules != nil {
		return fc.ExcludeCodesRules
	}
	return DefaultExcludeCodesRules
}
