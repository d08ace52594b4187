package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Adverse weather codes per the WMO interpretation table used by
// open-meteo: drizzle, rain, thunderstorms.
var adverseCodes = map[int]string{
	51: "mưa phùn nhẹ",
	53: "mưa phùn",
	55: "mưa phùn dày",
	61: "mưa nhỏ",
	63: "mưa vừa",
	65: "mưa to",
	80: "mưa rào nhẹ",
	81: "mưa rào",
	82: "mưa rào lớn",
	95: "dông",
	96: "dông kèm mưa đá",
	99: "dông lớn kèm mưa đá",
}

const precipitationThreshold = 60

// Client asks an open-meteo compatible forecast API about one fixed
// reference location.
type Client struct {
	baseURL    string
	latitude   float64
	longitude  float64
	httpClient *http.Client
}

func New(baseURL string, latitude, longitude float64) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		latitude:   latitude,
		longitude:  longitude,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// AdverseNote returns a human-readable condition note for the hour of the
// given time, or "" when conditions are fine or no forecast covers it.
func (c *Client) AdverseNote(ctx context.Context, at time.Time) (string, error) {
	query := url.Values{}
	query.Set("latitude", fmt.Sprintf("%.4f", c.latitude))
	query.Set("longitude", fmt.Sprintf("%.4f", c.longitude))
	query.Set("hourly", "precipitation_probability,weather_code")
	query.Set("timezone", "auto")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/forecast?"+query.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("create forecast request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("forecast request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("forecast status: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var forecast struct {
		Hourly struct {
			Time                     []string `json:"time"`
			PrecipitationProbability []int    `json:"precipitation_probability"`
			WeatherCode              []int    `json:"weather_code"`
		} `json:"hourly"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&forecast); err != nil {
		return "", fmt.Errorf("decode forecast response: %w", err)
	}

	wanted := at.Truncate(time.Hour).Format("2006-01-02T15:04")
	for i, slot := range forecast.Hourly.Time {
		if slot != wanted {
			continue
		}
		if i < len(forecast.Hourly.WeatherCode) {
			if note, ok := adverseCodes[forecast.Hourly.WeatherCode[i]]; ok {
				return note, nil
			}
		}
		if i < len(forecast.Hourly.PrecipitationProbability) {
			if p := forecast.Hourly.PrecipitationProbability[i]; p >= precipitationThreshold {
				return fmt.Sprintf("xác suất mưa %d%%", p), nil
			}
		}
		return "", nil
	}
	return "", nil
}
