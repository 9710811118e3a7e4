package service

import "strings"

type fallbackSet struct {
	keywords  []string
	questions []string
}

// fallbackSets are tried in order; the first whose keyword appears in the job title wins.
var fallbackSets = []fallbackSet{
	{
		keywords: []string{"sde", "software", "developer", "engineer"},
		questions: []string{
			"Tell me about yourself and your experience in software development.",
			"What programming languages are you most comfortable with and why?",
			"Can you explain the difference between an array and a linked list?",
			"Describe a challenging bug you encountered and how you solved it.",
			"What is your experience with version control systems like Git?",
			"How do you approach debugging a complex issue in production?",
			"Explain the concept of Object-Oriented Programming and its principles.",
			"What testing strategies do you use to ensure code quality?",
		},
	},
	{
		keywords: []string{"data", "analyst", "scientist"},
		questions: []string{
			"Tell me about your experience with data analysis.",
			"What tools and technologies have you used for data processing?",
			"Explain the difference between SQL and NoSQL databases.",
			"How do you handle missing or inconsistent data in a dataset?",
			"Describe a data project you're proud of and the impact it had.",
			"What is your experience with data visualization tools?",
			"How do you ensure data quality and integrity?",
			"Explain what a statistical hypothesis test is.",
		},
	},
	{
		keywords: []string{"frontend", "front-end", "ui", "ux"},
		questions: []string{
			"Tell me about your experience with frontend development.",
			"What JavaScript frameworks are you most comfortable with?",
			"How do you ensure your websites are responsive and accessible?",
			"Explain the difference between CSS Flexbox and Grid.",
			"How do you optimize frontend performance?",
			"What is your approach to cross-browser compatibility?",
			"Describe your experience with state management in React/Vue/Angular.",
			"How do you handle API integration in frontend applications?",
		},
	},
	{
		keywords: []string{"backend", "back-end", "api"},
		questions: []string{
			"Tell me about your experience with backend development.",
			"What backend frameworks and languages are you proficient in?",
			"How do you design RESTful APIs?",
			"Explain database normalization and why it matters.",
			"How do you handle authentication and authorization?",
			"Describe your experience with microservices architecture.",
			"How do you ensure API security?",
			"What strategies do you use for database optimization?",
		},
	},
}

var genericQuestions = []string{
	"Tell me about yourself and your professional background.",
	"What interests you about this position and our company?",
	"What are your greatest strengths and how do they apply to this role?",
	"Describe a challenging situation you faced at work and how you handled it.",
	"How do you prioritize tasks when managing multiple deadlines?",
	"Tell me about a time you worked in a team to achieve a goal.",
	"What motivates you in your professional life?",
	"Where do you see yourself in 5 years?",
}

func fallbackQuestions(jobTitle string) []string {
	title := strings.ToLower(jobTitle)
	for _, set := range fallbackSets {
		for _, kw := range set.keywords {
			if strings.Contains(title, kw) {
				return append([]string(nil), set.questions...)
			}
		}
	}
	return append([]string(nil), genericQuestions...)
}
