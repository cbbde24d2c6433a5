package interestrate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"
)

const DefaultBaseURL = "https://www.ustreasuryyieldcurve.com"

func interestRateMonthsFromApi(in string) (int, error) {
	cleanedStr := strings.Replace(in, "yield_", "", 1)
	if len(cleanedStr) < 2 {
		return 0, fmt.Errorf("unexpected yield key %q", in)
	}
	unit := string(cleanedStr[len(cleanedStr)-1])
	cleanedStr = cleanedStr[:len(cleanedStr)-1]
	months, err := strconv.Atoi(cleanedStr)
	if err != nil {
		return 0, err
	}

	if unit == "y" {
		months *= 12
	}

	return months, nil
}

// InterestRateMap is maturity in months -> annual yield as a fraction
type InterestRateMap struct {
	Rates map[int]float64
}

// GetRate returns the yield for the given maturity. maturities between
// two known points get the midpoint, ones outside the curve get the
// nearest end
func (im InterestRateMap) GetRate(monthsOut int) (float64, error) {
	if len(im.Rates) == 0 {
		return 0, fmt.Errorf("yield curve is empty")
	}
	v, ok := im.Rates[monthsOut]
	if ok {
		return v, nil
	}

	keys := []int{}
	for k := range im.Rates {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	if monthsOut < keys[0] {
		return im.Rates[keys[0]], nil
	}
	if monthsOut > keys[len(keys)-1] {
		return im.Rates[keys[len(keys)-1]], nil
	}

	for i := 0; i < len(keys)-1; i++ {
		key1 := keys[i]
		key2 := keys[i+1]
		if monthsOut > key1 && monthsOut < key2 {
			return (im.Rates[key1] + im.Rates[key2]) / 2, nil
		}
	}
	return 0, fmt.Errorf("unable to compute rate for %d months", monthsOut)
}

type YieldCurveClient interface {
	GetYieldCurve(ctx context.Context, date time.Time) (*InterestRateMap, error)
}

type yieldCurveClientHandler struct {
	Client  *http.Client
	BaseURL string
}

func NewYieldCurveClient(baseURL string, client *http.Client) YieldCurveClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return yieldCurveClientHandler{
		Client:  client,
		BaseURL: strings.TrimRight(baseURL, "/"),
	}
}

var yieldKeys = []string{
	"yield_1m",
	"yield_2m",
	"yield_3m",
	"yield_4m",
	"yield_6m",
	"yield_1y",
	"yield_2y",
	"yield_3y",
	"yield_5y",
	"yield_7y",
	"yield_10y",
	"yield_20y",
	"yield_30y",
}

func (h yieldCurveClientHandler) GetYieldCurve(ctx context.Context, date time.Time) (*InterestRateMap, error) {
	url := fmt.Sprintf("%s/api/v1/yield_curve_snapshot?date=%s&offset=0", h.BaseURL, date.Format(time.DateOnly))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	response, err := h.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	responseBytes, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("received status code %d and failed to read body: %w", response.StatusCode, err)
	}

	if response.StatusCode != 200 {
		return nil, fmt.Errorf("failed with status code %d: %s", response.StatusCode, string(responseBytes))
	}

	responseBody := []map[string]interface{}{}
	err = json.Unmarshal(responseBytes, &responseBody)
	if err != nil {
		return nil, fmt.Errorf("failed to decode yield curve: %w", err)
	}

	out := map[int]float64{}
	for _, snapshot := range responseBody {
		for _, field := range yieldKeys {
			v, ok := snapshot[field].(float64)
			if !ok {
				continue
			}
			months, err := interestRateMonthsFromApi(field)
			if err != nil {
				return nil, err
			}
			out[months] = v / 100
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no yields returned for %s", date.Format(time.DateOnly))
	}

	return &InterestRateMap{
		Rates: out,
	}, nil
}
