// Command scrape runs scripted browser sessions described in YAML.
//
// Usage:
//
//	scrape run scenario.yaml
//	scrape run scenario.yaml --screenshot out.jpg --html out.html
//
// Browser and logging defaults come from the environment (.env and
// .env.<APP_ENV> are loaded when present); the scenario file overrides them.
package main

func main() {
	Execute()
}
