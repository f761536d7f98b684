package service

import (
	config "github.com/maheshrc27/postpilot/configs"
)

func testConfig(baseURL string) config.Config {
	return config.Config{
		SecretKey: "test-secret",
		LLM: config.LLM{
			APIKey:  "sk-test",
			Model:   "gpt-test",
			BaseURL: baseURL,
		},
		Meta: config.Meta{
			AppID:        "app-id",
			AppSecret:    "app-secret",
			RedirectURI:  "https://app.example.com/callback",
			AuthURL:      "https://www.facebook.com/v21.0/dialog/oauth",
			GraphBaseURL: baseURL,
		},
	}
}
