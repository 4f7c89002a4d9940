package llm

// ResumeDataFormat 结构化简历提取的输出约束
func ResumeDataFormat() *ResponseFormat {
	return &ResponseFormat{
		Type: "json_schema",
		JSONSchema: &JSONSchema{
			Name:   "resume_data",
			Strict: true,
			Schema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"name":     map[string]interface{}{"type": "string"},
					"email":    map[string]interface{}{"type": "string"},
					"phone":    map[string]interface{}{"type": "string"},
					"location": map[string]interface{}{"type": "string"},
					"summary":  map[string]interface{}{"type": "string"},
					"skills": map[string]interface{}{
						"type":  "array",
						"items": map[string]interface{}{"type": "string"},
					},
					"experience": map[string]interface{}{
						"type": "array",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"title":       map[string]interface{}{"type": "string"},
								"company":     map[string]interface{}{"type": "string"},
								"location":    map[string]interface{}{"type": "string"},
								"startDate":   map[string]interface{}{"type": "string"},
								"endDate":     map[string]interface{}{"type": "string"},
								"description": map[string]interface{}{"type": "string"},
							},
							"required":             []string{"title", "company", "startDate", "endDate", "description"},
							"additionalProperties": false,
						},
					},
					"education": map[string]interface{}{
						"type": "array",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"degree":         map[string]interface{}{"type": "string"},
								"institution":    map[string]interface{}{"type": "string"},
								"location":       map[string]interface{}{"type": "string"},
								"graduationDate": map[string]interface{}{"type": "string"},
								"gpa":            map[string]interface{}{"type": "string"},
							},
							"required":             []string{"degree", "institution", "graduationDate"},
							"additionalProperties": false,
						},
					},
					"certifications": map[string]interface{}{
						"type":  "array",
						"items": map[string]interface{}{"type": "string"},
					},
					"languages": map[string]interface{}{
						"type":  "array",
						"items": map[string]interface{}{"type": "string"},
					},
				},
				"required":             []string{"name", "email", "skills", "experience", "education"},
				"additionalProperties": false,
			},
		},
	}
}

// JobMatchesFormat 岗位匹配的输出约束
func JobMatchesFormat() *ResponseFormat {
	return &ResponseFormat{
		Type: "json_schema",
		JSONSchema: &JSONSchema{
			Name:   "job_matches",
			Strict: true,
			Schema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"matches": map[string]interface{}{
						"type": "array",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"jobId":          map[string]interface{}{"type": "string"},
								"relevanceScore": map[string]interface{}{"type": "number"},
								"matchReasons": map[string]interface{}{
									"type":  "array",
									"items": map[string]interface{}{"type": "string"},
								},
							},
							"required":             []string{"jobId", "relevanceScore", "matchReasons"},
							"additionalProperties": false,
						},
					},
				},
				"required":             []string{"matches"},
				"additionalProperties": false,
			},
		},
	}
}
