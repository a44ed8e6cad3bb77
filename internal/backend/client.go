package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/relvacode/iso8601"

	"sensor-dashboard/internal/models"
)

// measurement is the backend wire format.
type measurement struct {
	ID       int64   `json:"id"`
	SensorID int     `json:"sensorsId"`
	OwnerID  int64   `json:"authentificationId"`
	Value    float64 `json:"valeur"`
	Date     string  `json:"dateMesure"`
}

type Options struct {
	Timeout time.Duration
	Token   string
	// Location is used for timestamps that carry no zone.
	Location *time.Location
	Logger   *slog.Logger
	// OnMalformed is told how many records were skipped for bad timestamps.
	OnMalformed func(n int)
}

// Client reads measurements from the backend REST API.
type Client struct {
	base        string
	token       string
	loc         *time.Location
	h           *http.Client
	log         *slog.Logger
	onMalformed func(int)
}

func New(base string, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Client{
		base:        strings.TrimRight(base, "/"),
		token:       opts.Token,
		loc:         opts.Location,
		h:           &http.Client{Timeout: opts.Timeout},
		log:         opts.Logger.With(slog.String("component", "backend")),
		onMalformed: opts.OnMalformed,
	}
}

// AllMeasurements calls GET /api/Mesure.
func (c *Client) AllMeasurements(ctx context.Context) ([]models.Measurement, error) {
	return c.get(ctx, "/api/Mesure")
}

// MeasurementsBySensor calls GET /api/Mesure/{sensorID}.
func (c *Client) MeasurementsBySensor(ctx context.Context, sensorID int) ([]models.Measurement, error) {
	return c.get(ctx, "/api/Mesure/"+strconv.Itoa(sensorID))
}

func (c *Client) get(ctx context.Context, path string) ([]models.Measurement, error) {
	endpoint := c.base + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.h.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("backend %s returned %d: %s", endpoint, resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var raw []measurement
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode %s: %w", endpoint, err)
	}

	out := make([]models.Measurement, 0, len(raw))
	malformed := 0
	for _, r := range raw {
		ts, err := iso8601.ParseStringInLocation(r.Date, c.loc)
		if err != nil {
			malformed++
			c.log.Warn("skipping measurement with bad timestamp",
				slog.Int64("id", r.ID),
				slog.String("dateMesure", r.Date),
				slog.Any("err", err),
			)
			continue
		}
		out = append(out, models.Measurement{
			ID:        r.ID,
			SensorID:  r.SensorID,
			OwnerID:   r.OwnerID,
			Value:     r.Value,
			Timestamp: ts,
		})
	}
	if malformed > 0 && c.onMalformed != nil {
		c.onMalformed(malformed)
	}
	return out, nil
}
