package scraper

// ResolutionMethod records how a company's domain was determined.
type ResolutionMethod string

// Resolution methods.
const (
	MethodSupplied ResolutionMethod = "supplied"
	MethodSearched ResolutionMethod = "searched"
)

// CompanyInput is one row of work: a company name and, optionally, a
// pre-supplied domain that bypasses search resolution.
type CompanyInput struct {
	Name   string
	Domain string
}

// ResolvedDomain is the resolver's answer for a company.
type ResolvedDomain struct {
	Domain     string
	Method     ResolutionMethod
	Confidence int
}

// TaskOrigin tags where a crawl task came from, for observability.
type TaskOrigin string

// Task origins.
const (
	OriginSitemap  TaskOrigin = "sitemap"
	OriginFallback TaskOrigin = "fallback"
)

// CrawlTask is a single candidate page. Lower priority values are crawled
// first; ordering is stable for identical inputs.
type CrawlTask struct {
	URL      string
	Priority int
	Origin   TaskOrigin
}

// EmailCandidate is a validated, normalized (lowercase) address found on a
// page. The address is the uniqueness key within a company's result.
type EmailCandidate struct {
	Address   string
	SourceURL string
	Score     int
}

// PageResult captures what one fetched page yielded. Immutable once built.
type PageResult struct {
	URL             string
	StatusCode      int
	Title           string
	MetaDescription string
	MetaKeywords    string
	Text            string
	Emails          []EmailCandidate
}

// Status is the terminal classification assigned to exactly one company.
type Status string

// Company statuses.
const (
	StatusWithEmail       Status = "with_email"
	StatusWithoutEmail    Status = "without_email"
	StatusNoGoogle        Status = "no_google"
	StatusDomainUnclear   Status = "domain_unclear"
	StatusSkippedDomain   Status = "skipped_domain"
	StatusProcessingError Status = "processing_error"
)

// AllStatuses enumerates every terminal status, in summary order.
var AllStatuses = []Status{
	StatusWithEmail,
	StatusWithoutEmail,
	StatusNoGoogle,
	StatusDomainUnclear,
	StatusSkippedDomain,
	StatusProcessingError,
}

// CompanyResult is the unit handed to the output sink: one processed company
// with its pages and deduplicated emails.
type CompanyResult struct {
	Company     string
	Domain      string
	Status      Status
	UsedSitemap bool
	Pages       []PageResult
	Emails      []EmailCandidate
}

// PageCount returns the number of pages actually visited.
func (r CompanyResult) PageCount() int {
	return len(r.Pages)
}
