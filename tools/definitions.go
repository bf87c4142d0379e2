package tools

import "github.com/richinex/seekr/llm"

// Forced-tool schemas. The model is made to call one of these so that its
// answer arrives as structured tool arguments instead of prose.

// RelatedQuestionsTool asks for exactly five follow-up questions.
var RelatedQuestionsTool = llm.ToolDefinition{
	Name:        "get_related_questions",
	Description: "Generate related follow-up questions based on the conversation context",
	Parameters: map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"questions": map[string]interface{}{
				"type":        "array",
				"items":       map[string]interface{}{"type": "string"},
				"minItems":    5,
				"maxItems":    5,
				"description": "Array of related questions",
			},
		},
		"required": []string{"questions"},
	},
}

// ExtractLocationTool pulls a place name out of free text.
var ExtractLocationTool = llm.ToolDefinition{
	Name:        "extract_location",
	Description: "Extract location information from the given text",
	Parameters: map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"location": map[string]interface{}{
				"type":        "string",
				"description": "The extracted location",
			},
		},
		"required": []string{"location"},
	},
}

// WeatherTool reports current conditions for a location.
var WeatherTool = llm.ToolDefinition{
	Name:        "get_weather",
	Description: "Get current weather information for the specified location",
	Parameters: map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"temperature": map[string]interface{}{
				"type":        "number",
				"description": "Current temperature in Celsius",
			},
			"condition": map[string]interface{}{
				"type":        "string",
				"description": "Weather condition (e.g., sunny, cloudy, rainy)",
			},
			"humidity": map[string]interface{}{
				"type":        "number",
				"description": "Humidity percentage",
			},
			"wind_speed": map[string]interface{}{
				"type":        "number",
				"description": "Wind speed in km/h",
			},
		},
		"required": []string{"temperature", "condition", "humidity", "wind_speed"},
	},
}

// CalculateTool is the calculator's schema, for forcing a calculation.
var CalculateTool = NewCalculatorTool().Metadata().Definition()
