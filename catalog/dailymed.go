// Package catalog fetches drug labeling PDFs from the DailyMed service.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Default DailyMed API endpoints.
const (
	DefaultSPLSURL        = "https://dailymed.nlm.nih.gov/dailymed/services/v2/spls.json"
	DefaultPDFDownloadURL = "https://dailymed.nlm.nih.gov/dailymed/downloadpdffile.cfm"
)

// DrugCategories is the built-in selection of drugs to fetch, grouped by
// therapeutic area. Brand and generic names both match through the
// name_type=both query filter.
var DrugCategories = map[string][]string{
	"ADHD":            {"Adderall", "Ritalin", "Vyvanse", "Concerta", "Strattera"},
	"Antidepressants": {"Prozac", "Zoloft", "Lexapro", "Wellbutrin", "Cymbalta"},
	"Dermatology":     {"Accutane", "Tretinoin", "Benzoyl peroxide"},
	"Cardiovascular":  {"Lipitor", "Atorvastatin", "Lisinopril", "Metoprolol"},
	"Diabetes":        {"Metformin", "Insulin glargine", "Ozempic"},
	"Pain":            {"Ibuprofen", "Naproxen", "Acetaminophen"},
}

// SPL is one structured product labeling record from the spls.json feed.
type SPL struct {
	SetID string `json:"setid"`
	Title string `json:"title"`
}

type splsResponse struct {
	Data []SPL `json:"data"`
}

// Client queries DailyMed and downloads labeling PDFs.
type Client struct {
	splsURL     string
	downloadURL string
	httpClient  *http.Client
	logger      *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithSPLSURL overrides the SPL listing endpoint.
func WithSPLSURL(u string) ClientOption {
	return func(c *Client) {
		c.splsURL = u
	}
}

// WithPDFDownloadURL overrides the PDF download endpoint.
func WithPDFDownloadURL(u string) ClientOption {
	return func(c *Client) {
		c.downloadURL = u
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithClientLogger sets a custom logger.
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a DailyMed client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		splsURL:     DefaultSPLSURL,
		downloadURL: DefaultPDFDownloadURL,
		httpClient:  http.DefaultClient,
		logger:      slog.New(slog.NewJSONHandler(os.Stdout, nil)),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// FetchSPLs queries the spls.json feed for a drug name, matching brand
// and generic names, returning up to pageSize records.
func (c *Client) FetchSPLs(ctx context.Context, drugName string, pageSize int) ([]SPL, error) {
	params := url.Values{}
	params.Set("drug_name", drugName)
	params.Set("name_type", "both")
	params.Set("pagesize", strconv.Itoa(pageSize))
	params.Set("page", "1")

	req, err := http.NewRequestWithContext(ctx, "GET", c.splsURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create SPL request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("SPL query for %q failed: %w", drugName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("SPL query for %q returned status %d", drugName, resp.StatusCode)
	}

	var parsed splsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode SPL response for %q: %w", drugName, err)
	}
	return parsed.Data, nil
}

// DownloadPDF fetches the labeling PDF for an SPL into outDir and returns
// the file path. Existing files are kept, so re-runs only fetch what is
// missing.
func (c *Client) DownloadPDF(ctx context.Context, spl SPL, outDir string) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	baseName := SafeFilename(spl.Title)
	if spl.Title == "" {
		baseName = spl.SetID
	}
	outPath := filepath.Join(outDir, fmt.Sprintf("%s_%s.pdf", baseName, spl.SetID))

	if _, err := os.Stat(outPath); err == nil {
		c.logger.Info("pdf already exists", "path", outPath)
		return outPath, nil
	}

	params := url.Values{}
	params.Set("setId", spl.SetID)

	req, err := http.NewRequestWithContext(ctx, "GET", c.downloadURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download for setid %s failed: %w", spl.SetID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download for setid %s returned status %d", spl.SetID, resp.StatusCode)
	}

	f, err := os.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", outPath, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		os.Remove(outPath)
		return "", fmt.Errorf("failed to write %s: %w", outPath, err)
	}

	c.logger.Info("pdf downloaded", "setid", spl.SetID, "path", outPath)
	return outPath, nil
}

// FetchAll downloads up to maxPerDrug labeling PDFs for every drug in
// categories into outDir, returning the number downloaded. Individual
// drug failures are logged and skipped; one unreachable record should
// not abort a multi-drug fetch.
func (c *Client) FetchAll(ctx context.Context, categories map[string][]string, outDir string, maxPerDrug int) (int, error) {
	total := 0

	for category, drugs := range categories {
		c.logger.Info("fetching category", "category", category)
		for _, drugName := range drugs {
			select {
			case <-ctx.Done():
				return total, ctx.Err()
			default:
			}

			spls, err := c.FetchSPLs(ctx, drugName, 3)
			if err != nil {
				c.logger.Error("spl query failed", "drug", drugName, "error", err)
				continue
			}
			if len(spls) == 0 {
				c.logger.Info("no spls found", "drug", drugName)
				continue
			}

			if len(spls) > maxPerDrug {
				spls = spls[:maxPerDrug]
			}
			for _, spl := range spls {
				if spl.SetID == "" {
					continue
				}
				if _, err := c.DownloadPDF(ctx, spl, outDir); err != nil {
					c.logger.Error("pdf download failed", "setid", spl.SetID, "error", err)
					continue
				}
				total++
			}
		}
	}

	return total, nil
}

var (
	bracketRegex  = regexp.MustCompile(`[\[\]()]`)
	nonAlnumRegex = regexp.MustCompile(`[^a-z0-9]+`)
	underscoreRun = regexp.MustCompile(`_+`)
)

// SafeFilename converts a labeling title into a filesystem-safe name,
// e.g. "ZOCOR (SIMVASTATIN) TABLET [MERCK]" -> "zocor_simvastatin_tablet_merck".
func SafeFilename(title string) string {
	title = strings.ToLower(title)
	title = bracketRegex.ReplaceAllString(title, " ")
	title = nonAlnumRegex.ReplaceAllString(title, "_")
	title = underscoreRun.ReplaceAllString(title, "_")
	title = strings.Trim(title, "_")
	if title == "" {
		return "drug_label"
	}
	return title
}
