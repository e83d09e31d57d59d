// Package sheet reads company lists and writes result rows as CSV.
package sheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Jul352mf/THE-Email-Scraper/internal/scraper"
)

// ErrMissingCompanyColumn is returned when the input header lacks a
// Company column.
var ErrMissingCompanyColumn = errors.New("input is missing a Company column")

// Read parses the company list. The header must contain Company
// (case-insensitive); a Domain column is optional. Rows with a blank
// company cell are dropped.
func Read(r io.Reader) ([]scraper.CompanyInput, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	companyCol, domainCol := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "company":
			companyCol = i
		case "domain":
			domainCol = i
		}
	}
	if companyCol < 0 {
		return nil, ErrMissingCompanyColumn
	}

	var inputs []scraper.CompanyInput
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if companyCol >= len(row) {
			continue
		}
		name := strings.TrimSpace(row[companyCol])
		if name == "" {
			continue
		}
		input := scraper.CompanyInput{Name: name}
		if domainCol >= 0 && domainCol < len(row) {
			input.Domain = strings.TrimSpace(row[domainCol])
		}
		inputs = append(inputs, input)
	}
	return inputs, nil
}

// ReadFile is Read over a file path.
func ReadFile(path string) ([]scraper.CompanyInput, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Write emits Company,Domain,Email rows in input order, one row per email.
// When saveDomainOnly is set, a company that resolved a domain but yielded
// no email still gets a domain-only row. Exact duplicate rows are removed.
func Write(w io.Writer, results []scraper.CompanyResult, saveDomainOnly bool) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Company", "Domain", "Email"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	seen := map[string]struct{}{}
	emit := func(row []string) error {
		key := strings.Join(row, "\x1f")
		if _, dup := seen[key]; dup {
			return nil
		}
		seen[key] = struct{}{}
		return cw.Write(row)
	}

	for _, result := range results {
		if len(result.Emails) == 0 {
			if saveDomainOnly && result.Domain != "" {
				if err := emit([]string{result.Company, result.Domain, ""}); err != nil {
					return fmt.Errorf("write row: %w", err)
				}
			}
			continue
		}
		for _, email := range result.Emails {
			if err := emit([]string{result.Company, result.Domain, email.Address}); err != nil {
				return fmt.Errorf("write row: %w", err)
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteFile is Write over a file path, replacing any existing file.
func WriteFile(path string, results []scraper.CompanyResult, saveDomainOnly bool) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := Write(f, results, saveDomainOnly); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
