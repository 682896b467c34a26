// Package scraping is a thin convenience layer over a go-rod browser session.
//
// Pages are addressed through DOM aliases: a ScrapeOption maps short names
// to CSS selectors so scripts read as a list of steps rather than selectors.
//
//	wrapper, err := scraping.New(ctx, scraping.ScrapeOption{
//		DomDefs: map[string]string{
//			"search_text_area": `[title="Search"]`,
//			"search_button":    `[value="Google Search"]`,
//			"first_result":     "h3",
//		},
//		Headless:   scraping.Bool(false),
//		WindowSize: &entity.WindowSize{Width: 1920, Height: 1080},
//	})
//	if err != nil {
//		return err
//	}
//	defer wrapper.Close()
//
//	err = wrapper.Operate(ctx, []scraping.Operation{
//		{Method: scraping.Go, Target: "https://www.google.com/"},
//		{Method: scraping.Fill, Target: "search_text_area", Content: scraping.String("sample text")},
//		{Method: scraping.Click, Target: "search_button"},
//	})
//	if err != nil {
//		return err
//	}
//	first, err := wrapper.GetInnerText(ctx, "first_result")
//
// Every browser call is retried with a constant pause (five attempts two
// seconds apart by default), since lookups on a page that is still
// rendering fail transiently.
package scraping
