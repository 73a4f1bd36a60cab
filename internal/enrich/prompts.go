package enrich

const summarizeSystemPrompt = `Summarize each news article in 1 sentence. Return ONLY numbered summaries matching the input numbers, one per line. Format: "1. Summary here\n2. Summary here"`

const scoreSystemPrompt = `Rate each article's relevance to user interests from 0.0 to 1.0. Return ONLY numbered scores, one per line. Format: "1. 0.8\n2. 0.5"`

const preferencesSystemPrompt = `You are a news preference parser. Convert user input into JSON with topics, categories, and timeframe. Return ONLY valid JSON.`

const preferencesUserPrompt = `Parse this into JSON format {"topics": [], "categories": [], "timeframe": "7 days"}: %q`
