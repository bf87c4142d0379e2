package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	jsonutil "github.com/richinex/seekr/internal/json"
	"github.com/richinex/seekr/internal/logger"
	"github.com/richinex/seekr/llm"
	"github.com/richinex/seekr/tools"
)

// WeatherConfidence is the confidence reported for weather answers.
const WeatherConfidence = 0.95

var (
	// ErrNoLocation is returned when no place can be read from the query.
	ErrNoLocation = errors.New("could not extract location from query")
	// ErrNoWeather is returned when the weather tool call is unusable.
	ErrNoWeather = errors.New("could not get weather data")
)

// WeatherReport is the payload of the get_weather tool.
type WeatherReport struct {
	Temperature float64 `json:"temperature"`
	Condition   string  `json:"condition"`
	Humidity    float64 `json:"humidity"`
	WindSpeed   float64 `json:"wind_speed"`
}

// WeatherAgent answers current-conditions questions with three calls:
// location extraction, the weather tool and a formatting pass.
type WeatherAgent struct {
	client  *llm.Client
	persona Config
	logger  *zap.Logger
}

// NewWeatherAgent creates a weather agent using the Weather persona.
func NewWeatherAgent(client *llm.Client, l *zap.Logger) *WeatherAgent {
	return &WeatherAgent{client: client, persona: Weather(), logger: logger.OrNop(l)}
}

// Process answers query in language.
func (w *WeatherAgent) Process(ctx context.Context, query, language string) (AgentResult, error) {
	system := llm.SystemMessage(w.persona.Prompt(language))

	out, err := w.client.Complete(ctx,
		[]llm.ChatMessage{system, llm.UserMessage("Extract the location from this query: " + query)},
		llm.WithForcedTool(tools.ExtractLocationTool),
		llm.WithLabel("extract_location"),
	)
	if err != nil {
		return AgentResult{}, err
	}
	var loc struct {
		Location string `json:"location"`
	}
	if err := jsonutil.ExtractInto(out.ToolArgs, &loc); err != nil || strings.TrimSpace(loc.Location) == "" {
		w.logger.Warn("location extraction failed", zap.String("raw_preview", jsonutil.Preview(out.ToolArgs, 200)), zap.Error(err))
		return AgentResult{}, ErrNoLocation
	}
	location := strings.TrimSpace(loc.Location)

	out, err = w.client.Complete(ctx,
		[]llm.ChatMessage{system, llm.UserMessage("Get weather for location: " + location)},
		llm.WithForcedTool(tools.WeatherTool),
		llm.WithLabel("get_weather"),
	)
	if err != nil {
		return AgentResult{}, err
	}
	report, err := parseWeather(out.ToolArgs)
	if err != nil {
		w.logger.Warn("weather data unusable", zap.String("location", location), zap.Error(err))
		return AgentResult{}, ErrNoWeather
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return AgentResult{}, fmt.Errorf("failed to encode weather data: %w", err)
	}
	out, err = w.client.Complete(ctx,
		[]llm.ChatMessage{system, llm.UserMessage(fmt.Sprintf(
			"Format this weather data into a natural response in %s:\n%s", LanguageName(language), data))},
		llm.WithLabel("format_weather"),
	)
	if err != nil {
		return AgentResult{}, err
	}

	return AgentResult{
		Answer: out.Text,
		Sources: []Source{{
			Title: "Weather data for " + location,
			URL:   "https://weather.example.com/" + url.PathEscape(location),
		}},
		Confidence: WeatherConfidence,
	}, nil
}

// parseWeather requires every get_weather field to be present.
func parseWeather(args string) (WeatherReport, error) {
	var fields map[string]json.RawMessage
	if err := jsonutil.ExtractInto(args, &fields); err != nil {
		return WeatherReport{}, err
	}
	for _, key := range []string{"temperature", "condition", "humidity", "wind_speed"} {
		if _, ok := fields[key]; !ok {
			return WeatherReport{}, fmt.Errorf("missing field %q", key)
		}
	}
	var report WeatherReport
	if err := jsonutil.ExtractInto(args, &report); err != nil {
		return WeatherReport{}, err
	}
	return report, nil
}
