package survey

import "strconv"

// frequencyLabels is the 1-6 scale for corruption-perception questions,
// worst service outcome first.
var frequencyLabels = []string{
	"Always", "Very often", "Often", "Sometimes", "Rarely", "Never",
}

// qualityLabels is the 1-6 scale for service-quality questions.
var qualityLabels = []string{
	"Very poor", "Poor", "Fair", "Good", "Very good", "Excellent",
}

func scaleOptions(labels []string) []Option {
	opts := make([]Option, 0, len(labels))
	for i, label := range labels {
		opts = append(opts, Option{
			Value: strconv.Itoa(i + 1),
			Label: label,
			Score: i + 1,
		})
	}
	return opts
}

func corruptionQuestion(id, text string) *Question {
	return &Question{ID: id, Text: text, Options: scaleOptions(frequencyLabels), Category: CategoryCorruptionPerception}
}

func qualityQuestion(id, text string) *Question {
	return &Question{ID: id, Text: text, Options: scaleOptions(qualityLabels), Category: CategoryServiceQuality}
}

// Catalog is the fixed question set every survey instance answers:
// 8 corruption-perception, 25 service-quality and 1 integrity question,
// in display order.
var Catalog = []*Question{
	corruptionQuestion("cp1", "Officers ask for payment outside the official tariff."),
	corruptionQuestion("cp2", "Officers expect gifts or gratuities to speed up the process."),
	corruptionQuestion("cp3", "Requests are prioritized for people with personal connections."),
	corruptionQuestion("cp4", "Brokers or intermediaries are involved in getting the service."),
	corruptionQuestion("cp5", "Officers abuse their position for personal benefit."),
	corruptionQuestion("cp6", "Service conditions differ from the published procedure."),
	corruptionQuestion("cp7", "Officers discriminate between applicants without clear reasons."),
	corruptionQuestion("cp8", "Official fees are charged without a receipt or proof of payment."),

	qualityQuestion("sq1", "Ease of finding information about service requirements."),
	qualityQuestion("sq2", "Clarity of the published service procedure."),
	qualityQuestion("sq3", "Simplicity of the steps needed to complete the service."),
	qualityQuestion("sq4", "Speed of handling once the request is submitted."),
	qualityQuestion("sq5", "Punctuality of the promised completion time."),
	qualityQuestion("sq6", "Reasonableness of the official cost of the service."),
	qualityQuestion("sq7", "Transparency of costs before the service starts."),
	qualityQuestion("sq8", "Match between the delivered result and what was requested."),
	qualityQuestion("sq9", "Competence of the officers handling the request."),
	qualityQuestion("sq10", "Courtesy and friendliness of the officers."),
	qualityQuestion("sq11", "Willingness of officers to explain unclear points."),
	qualityQuestion("sq12", "Fairness in serving applicants in arrival order."),
	qualityQuestion("sq13", "Comfort of the waiting and service areas."),
	qualityQuestion("sq14", "Availability of supporting facilities (seating, forms, signage)."),
	qualityQuestion("sq15", "Accessibility of the service location."),
	qualityQuestion("sq16", "Availability of online or remote service channels."),
	qualityQuestion("sq17", "Reliability of the online service channels."),
	qualityQuestion("sq18", "Ease of reaching the unit by phone or message."),
	qualityQuestion("sq19", "Responsiveness to questions and follow-ups."),
	qualityQuestion("sq20", "Handling of complaints about the service."),
	qualityQuestion("sq21", "Availability of a clear complaint channel."),
	qualityQuestion("sq22", "Protection of applicants' personal data."),
	qualityQuestion("sq23", "Consistency of service quality across visits."),
	qualityQuestion("sq24", "Officers' adherence to the service schedule."),
	qualityQuestion("sq25", "Overall satisfaction with the service received."),

	{
		ID:   "si1",
		Text: "Did anyone direct or pressure you to give particular answers in this survey?",
		Options: []Option{
			{Value: "yes", Label: "Yes", Score: 0},
			{Value: "no", Label: "No", Score: 0},
		},
		Category: CategorySurveyIntegrity,
	},
}

// QuestionByID returns the catalog entry with the given id, or nil.
func QuestionByID(id string) *Question {
	for _, q := range Catalog {
		if q.ID == id {
			return q
		}
	}
	return nil
}

// QuestionsInCategory returns the catalog subset for one category,
// preserving catalog order.
func QuestionsInCategory(catalog []*Question, c Category) []*Question {
	out := make([]*Question, 0, len(catalog))
	for _, q := range catalog {
		if q.Category == c {
			out = append(out, q)
		}
	}
	return out
}
