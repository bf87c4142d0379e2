package mock

import (
	"fmt"
	"strings"
	"time"

	"github.com/richinex/seekr/search"
)

type article struct {
	title, url, snippet, domain, image, imageDescription string
	age                                                  time.Duration
}

var defaultResults = []search.Result{
	{
		Title:   "Wikipedia - Comprehensive Information",
		URL:     "https://en.wikipedia.org/wiki/example",
		Snippet: "This is a comprehensive source of information about the topic you're asking about. It provides detailed explanations and context.",
		Score:   0.95,
		Domain:  "wikipedia.org",
	},
	{
		Title:   "Academic Research Paper",
		URL:     "https://example.com/research",
		Snippet: "Recent research findings and academic analysis on this subject matter. Peer-reviewed sources provide authoritative information.",
		Score:   0.92,
		Domain:  "research.edu",
	},
	{
		Title:   "Expert Analysis and Insights",
		URL:     "https://example.com/analysis",
		Snippet: "In-depth analysis from industry experts covering various aspects of the topic. Includes practical applications and real-world examples.",
		Score:   0.88,
		Domain:  "expert.com",
	},
	{
		Title:   "Official Documentation",
		URL:     "https://example.com/docs",
		Snippet: "Official documentation and specifications. Provides technical details and implementation guidelines.",
		Score:   0.85,
		Domain:  "docs.example.com",
	},
	{
		Title:   "News Article - Latest Updates",
		URL:     "https://example.com/news",
		Snippet: "Latest news and developments related to this topic. Includes recent events and current trends.",
		Score:   0.82,
		Domain:  "news.example.com",
	},
}

var newsCatalog = map[string][]article{
	"general": {
		{"Breaking: Major Global Development Unfolds", "https://example.com/news/breaking-1",
			"Significant developments are happening around the world that could impact multiple sectors and regions.",
			"news.example.com", "https://via.placeholder.com/400x225?text=News+1", "Breaking news image", 2 * time.Hour},
		{"Technology Advances Change Industry Landscape", "https://example.com/news/tech-1",
			"New technological innovations are reshaping how businesses operate and interact with customers.",
			"tech.example.com", "https://via.placeholder.com/400x225?text=Tech+News", "Technology news image", 4 * time.Hour},
		{"Economic Trends Show Positive Growth", "https://example.com/news/economy-1",
			"Economic indicators suggest positive trends in multiple sectors, with experts predicting continued growth.",
			"finance.example.com", "https://via.placeholder.com/400x225?text=Economy", "Economic news image", 6 * time.Hour},
	},
	"business": {
		{"Corporate Strategy Shifts in 2024", "https://example.com/news/business-1",
			"Major corporations are adapting their strategies to meet changing market demands and consumer expectations.",
			"business.example.com", "https://via.placeholder.com/400x225?text=Business", "Business news image", time.Hour},
		{"Startup Funding Reaches New Heights", "https://example.com/news/business-2",
			"Venture capital investments continue to flow into innovative startups across various industries.",
			"vc.example.com", "https://via.placeholder.com/400x225?text=Startups", "Startup news image", 3 * time.Hour},
	},
	"science": {
		{"Scientific Breakthrough in Medical Research", "https://example.com/news/science-1",
			"Researchers make significant progress in understanding complex medical conditions and potential treatments.",
			"science.example.com", "https://via.placeholder.com/400x225?text=Science", "Science news image", 2 * time.Hour},
	},
	"world": {
		{"Global Events Shape International Relations", "https://example.com/news/world-1",
			"Recent developments in international affairs are reshaping diplomatic relationships and global policies.",
			"world.example.com", "https://via.placeholder.com/400x225?text=World", "World news image", time.Hour},
	},
	"entertainment": {
		{"Entertainment Industry Announces Major Releases", "https://example.com/news/entertainment-1",
			"Upcoming releases and announcements from the entertainment industry are generating excitement among fans.",
			"entertainment.example.com", "https://via.placeholder.com/400x225?text=Entertainment", "Entertainment news image", 3 * time.Hour},
	},
	"gaming": {
		{"New Gaming Technologies Transform Player Experience", "https://example.com/news/gaming-1",
			"Latest gaming innovations are revolutionizing how players interact with virtual worlds and game mechanics.",
			"gaming.example.com", "https://via.placeholder.com/400x225?text=Gaming", "Gaming news image", 4 * time.Hour},
	},
	"health": {
		{"Health Innovations Improve Patient Outcomes", "https://example.com/news/health-1",
			"New health technologies and medical advances are improving treatment options and patient care.",
			"health.example.com", "https://via.placeholder.com/400x225?text=Health", "Health news image", 2 * time.Hour},
	},
	"finance": {
		{"Financial Markets Show Strong Performance", "https://example.com/news/finance-1",
			"Market trends and financial indicators point to positive developments in various economic sectors.",
			"finance.example.com", "https://via.placeholder.com/400x225?text=Finance", "Finance news image", time.Hour},
	},
}

// Categories lists the categories with their own catalog entries.
func Categories() []string {
	return []string{"general", "business", "science", "world", "entertainment", "gaming", "health", "finance"}
}

// catalogNews returns category's articles padded with generated ones up
// to n. Unknown categories use the general catalog.
func catalogNews(category string, n int, now time.Time) []search.Result {
	base, ok := newsCatalog[category]
	if !ok {
		base = newsCatalog["general"]
	}

	out := make([]search.Result, 0, max(n, len(base)))
	for _, a := range base {
		published := now.Add(-a.age)
		out = append(out, search.Result{
			Title:            a.title,
			URL:              a.url,
			Snippet:          a.snippet,
			Domain:           a.domain,
			PublishedDate:    &published,
			ImageURL:         a.image,
			ImageDescription: a.imageDescription,
		})
	}
	for i := len(base); i < n; i++ {
		published := now.Add(-time.Duration(i) * time.Hour)
		out = append(out, search.Result{
			Title:            fmt.Sprintf("%s News Article %d", capitalize(category), i+1),
			URL:              fmt.Sprintf("https://example.com/news/%s-%d", category, i+1),
			Snippet:          fmt.Sprintf("This is article %d in the %s category. It contains relevant information about current events and trends.", i+1, category),
			Domain:           "news.example.com",
			PublishedDate:    &published,
			ImageURL:         fmt.Sprintf("https://via.placeholder.com/400x225?text=%s+%d", category, i+1),
			ImageDescription: fmt.Sprintf("%s news image %d", category, i+1),
		})
	}
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// mockResponse is the canned answer for query, picked by keyword.
func mockResponse(query string) string {
	lower := strings.ToLower(query)
	switch {
	case strings.Contains(lower, "what is") || strings.Contains(lower, "what are"):
		return "Based on the available information, I can explain this topic for you. " + query +
			" is a complex subject that involves multiple aspects. Let me break it down:\n\n" +
			"1. **Core Concept**: The fundamental idea relates to how this concept works in practice.\n\n" +
			"2. **Key Components**: There are several important elements to consider, including practical applications and theoretical foundations.\n\n" +
			"3. **Real-World Applications**: This concept has been applied in various contexts, showing significant impact in different industries.\n\n" +
			"4. **Current Trends**: Recent developments suggest that this area is evolving rapidly, with new innovations emerging regularly.\n\n" +
			"Would you like me to dive deeper into any specific aspect of this topic?"
	case strings.Contains(lower, "how"):
		return "Here's a step-by-step guide on " + query + ":\n\n" +
			"**Step 1: Getting Started**\nBegin by understanding the basic requirements and prerequisites for this task.\n\n" +
			"**Step 2: Preparation**\nGather all necessary resources and tools needed to proceed effectively.\n\n" +
			"**Step 3: Implementation**\nFollow the established process, making sure to pay attention to important details.\n\n" +
			"**Step 4: Verification**\nCheck your work and ensure everything is functioning as expected.\n\n" +
			"**Step 5: Optimization**\nConsider ways to improve efficiency and effectiveness based on your results.\n\n" +
			"This approach has been proven effective in various scenarios. Would you like more details on any specific step?"
	case strings.Contains(lower, "why"):
		return "There are several important reasons why " + query + ":\n\n" +
			"1. **Primary Reason**: The most significant factor is related to fundamental principles and established practices.\n\n" +
			"2. **Supporting Factors**: Additional considerations include efficiency, effectiveness, and long-term benefits.\n\n" +
			"3. **Historical Context**: Looking at past developments, this trend has been building for some time.\n\n" +
			"4. **Practical Benefits**: In practice, this approach offers concrete advantages that make it worthwhile.\n\n" +
			"Understanding these reasons helps provide context for why this topic matters and how it affects various aspects."
	}
	return "Thank you for your question about \"" + query + "\". Let me provide you with a comprehensive answer.\n\n" +
		"**Overview**\nThis is an important topic that touches on several key areas. Based on current information and research, I can share the following insights:\n\n" +
		"**Main Points**\n" +
		"1. The topic involves multiple interconnected elements that work together to create a cohesive system.\n" +
		"2. Recent developments have shown significant progress in understanding and applying these concepts.\n" +
		"3. Practical applications demonstrate real-world value and effectiveness.\n" +
		"4. Future trends suggest continued evolution and improvement in this area.\n\n" +
		"**Key Considerations**\nWhen exploring this topic, it's important to consider various perspectives and factors. " +
		"Different approaches may work better in different contexts, so flexibility and adaptability are valuable.\n\n" +
		"**Additional Information**\nFor more detailed information, I recommend exploring authoritative sources and expert opinions on this subject. " +
		"Would you like me to elaborate on any specific aspect?"
}

var relatedQuestions = []string{
	"Can you explain this in more detail?",
	"What are the main benefits?",
	"How does this compare to alternatives?",
	"What are some practical examples?",
	"Are there any limitations I should know about?",
}

var mockWeather = map[string]any{
	"temperature": 22,
	"condition":   "partly cloudy",
	"humidity":    65,
	"wind_speed":  12,
}
