package parser

import (
	"fmt"
	"strings"

	"job-agent-go/internal/constants"

	"github.com/cloudwego/eino/schema"
)

// JobPromptInfo 提示词中用到的岗位信息
type JobPromptInfo struct {
	JobID        string
	Title        string
	Company      string
	Location     string
	JobType      string
	Description  string
	Requirements string
}

// BuildResumeGenerationMessages 构建简历生成提示词
// structuredJSON 为已提取的结构化数据(JSON字符串)，优先于原始文本使用
func BuildResumeGenerationMessages(resumeText, structuredJSON, additionalInfo string) []*schema.Message {
	var sb strings.Builder

	if structuredJSON != "" {
		sb.WriteString("Create a professional, ATS-friendly resume in markdown format using this structured data:\n\n")
		sb.WriteString(structuredJSON)
		sb.WriteString("\n\n")
		if additionalInfo != "" {
			sb.WriteString(fmt.Sprintf("Additional Information:\n%s\n\n", additionalInfo))
		}
		sb.WriteString("Format it with clear sections: Contact Information, Professional Summary, Work Experience (with bullet points for achievements), Education, Skills, Certifications, and Languages. Make it visually appealing and professional.")
	} else {
		sb.WriteString("You are a professional resume writer. Generate a well-formatted, professional resume based on the following information.\n\n")
		if resumeText != "" {
			sb.WriteString(fmt.Sprintf("Existing Resume Content:\n%s\n\n", resumeText))
		}
		if additionalInfo != "" {
			sb.WriteString(fmt.Sprintf("Additional Information:\n%s\n\n", additionalInfo))
		}
		sb.WriteString("Create a comprehensive resume with the following sections:\n")
		sb.WriteString("- Contact Information\n- Professional Summary\n- Work Experience\n- Education\n- Skills\n- Certifications (if applicable)\n\n")
		sb.WriteString("Format the resume in a clean, professional manner using markdown. Make it ATS-friendly and highlight key achievements with metrics where possible.")
	}

	return []*schema.Message{
		schema.SystemMessage("You are an expert resume writer who creates professional, ATS-friendly resumes."),
		schema.UserMessage(sb.String()),
	}
}

// BuildCoverLetterMessages 构建求职信生成提示词
func BuildCoverLetterMessages(job JobPromptInfo, resumeText, additionalInfo string) []*schema.Message {
	location := job.Location
	if location == "" {
		location = "Remote"
	}

	var sb strings.Builder
	sb.WriteString("You are a professional career coach. Generate a compelling cover letter for the following job application.\n\n")
	sb.WriteString("Job Details:\n")
	sb.WriteString(fmt.Sprintf("- Position: %s\n", job.Title))
	sb.WriteString(fmt.Sprintf("- Company: %s\n", job.Company))
	sb.WriteString(fmt.Sprintf("- Location: %s\n", location))
	sb.WriteString(fmt.Sprintf("- Job Type: %s\n", job.JobType))
	sb.WriteString(fmt.Sprintf("- Description: %s\n", job.Description))
	if job.Requirements != "" {
		sb.WriteString(fmt.Sprintf("- Requirements: %s\n", job.Requirements))
	}
	sb.WriteString("\n")
	if resumeText != "" {
		sb.WriteString(fmt.Sprintf("Applicant's Background:\n%s\n\n", resumeText))
	}
	if additionalInfo != "" {
		sb.WriteString(fmt.Sprintf("Additional Information:\n%s\n\n", additionalInfo))
	}
	sb.WriteString("Create a professional cover letter that:\n")
	sb.WriteString("1. Opens with a strong introduction expressing interest in the position\n")
	sb.WriteString("2. Highlights relevant skills and experiences that match the job requirements\n")
	sb.WriteString("3. Demonstrates knowledge of the company and enthusiasm for the role\n")
	sb.WriteString("4. Closes with a call to action\n\n")
	sb.WriteString("Format the letter professionally with proper business letter structure. Make it personalized and compelling.")

	return []*schema.Message{
		schema.SystemMessage("You are an expert career coach who writes compelling, personalized cover letters."),
		schema.UserMessage(sb.String()),
	}
}

// BuildRecommendationMessages 构建推荐信生成提示词
// targetPosition 形如 "Target Position: {title} at {company}"，可为空
func BuildRecommendationMessages(relationshipInfo, resumeText, targetPosition, additionalInfo string) []*schema.Message {
	var sb strings.Builder
	sb.WriteString("You are a professional reference writer. Generate a strong letter of recommendation based on the following information.\n\n")
	if relationshipInfo != "" {
		sb.WriteString(fmt.Sprintf("Relationship Context:\n%s\n\n", relationshipInfo))
	}
	if resumeText != "" {
		sb.WriteString(fmt.Sprintf("Candidate's Background:\n%s\n\n", resumeText))
	}
	if targetPosition != "" {
		sb.WriteString(fmt.Sprintf("%s\n\n", targetPosition))
	}
	if additionalInfo != "" {
		sb.WriteString(fmt.Sprintf("Additional Information:\n%s\n\n", additionalInfo))
	}
	sb.WriteString("Create a professional letter of recommendation that:\n")
	sb.WriteString("1. Introduces the recommender and their relationship to the candidate\n")
	sb.WriteString("2. Highlights specific achievements, skills, and qualities\n")
	sb.WriteString("3. Provides concrete examples of the candidate's work and character\n")
	sb.WriteString("4. Gives a strong endorsement for the position or opportunity\n")
	sb.WriteString("5. Closes with contact information and willingness to discuss further\n\n")
	sb.WriteString("Format the letter professionally with proper business letter structure.")

	return []*schema.Message{
		schema.SystemMessage("You are an experienced professional who writes compelling letters of recommendation."),
		schema.UserMessage(sb.String()),
	}
}

// BuildTemplateMessages 构建"从简历生成文档"的提示词
// docType 取 constants.DocType* 之一，对求职信/推荐信生成通用模板
func BuildTemplateMessages(docType, resumeText string) ([]*schema.Message, error) {
	var systemMsg, prompt string

	switch docType {
	case constants.DocTypeResume:
		systemMsg = "You are an expert resume writer."
		prompt = fmt.Sprintf("You are a professional resume writer. Based on the following resume content, create a well-formatted, professional resume in markdown format. Include sections for contact information, professional summary, work experience, education, and skills. Make it ATS-friendly and visually appealing.\n\nResume Content:\n%s", resumeText)
	case constants.DocTypeCoverLetter:
		systemMsg = "You are an expert cover letter writer."
		prompt = fmt.Sprintf("Based on this resume, create a professional, general-purpose cover letter template in markdown format. The letter should highlight the candidate's key strengths and be adaptable to various job applications. Include placeholders for [Company Name] and [Position Title].\n\nResume Content:\n%s", resumeText)
	case constants.DocTypeRecommendation:
		systemMsg = "You are an expert at writing professional recommendation letters."
		prompt = fmt.Sprintf("Based on this resume, create a professional recommendation letter template in markdown format. The letter should be written from a supervisor's perspective, highlighting the candidate's skills, achievements, and work ethic. Include placeholders for [Recommender Name], [Recommender Title], and [Relationship].\n\nResume Content:\n%s", resumeText)
	default:
		return nil, fmt.Errorf("unknown document type: %s", docType)
	}

	return []*schema.Message{
		schema.SystemMessage(systemMsg),
		schema.UserMessage(prompt),
	}, nil
}

// BuildStructuredExtractionMessages 构建结构化提取提示词
func BuildStructuredExtractionMessages(resumeText string) []*schema.Message {
	prompt := fmt.Sprintf(`Parse the following resume and extract structured information. Return ONLY valid JSON with this exact structure:
{
  "name": "Full name",
  "email": "Email address",
  "phone": "Phone number",
  "location": "City, State/Country",
  "summary": "Professional summary or objective",
  "skills": ["skill1", "skill2", ...],
  "experience": [
    {
      "title": "Job title",
      "company": "Company name",
      "location": "Location",
      "startDate": "Start date",
      "endDate": "End date or Present",
      "description": "Job description and achievements"
    }
  ],
  "education": [
    {
      "degree": "Degree name",
      "institution": "School/University name",
      "location": "Location",
      "graduationDate": "Graduation date",
      "gpa": "GPA if mentioned"
    }
  ],
  "certifications": ["cert1", "cert2", ...],
  "languages": ["language1", "language2", ...]
}

Resume text:
%s`, resumeText)

	return []*schema.Message{
		schema.SystemMessage("You are a resume parser. Extract structured information from resumes and return it as JSON."),
		schema.UserMessage(prompt),
	}
}

// BuildJobMatchMessages 构建岗位匹配提示词
func BuildJobMatchMessages(resumeText string, jobs []JobPromptInfo, limit int) []*schema.Message {
	var jobsText strings.Builder
	for i, job := range jobs {
		requirements := job.Requirements
		if requirements == "" {
			requirements = "N/A"
		}
		jobsText.WriteString(fmt.Sprintf("Job %d (ID: %s):\nTitle: %s\nCompany: %s\nDescription: %s\nRequirements: %s\n",
			i+1, job.JobID, job.Title, job.Company, job.Description, requirements))
		if i < len(jobs)-1 {
			jobsText.WriteString("\n---\n\n")
		}
	}

	prompt := fmt.Sprintf(`You are a job matching expert. Analyze the following resume and match it with the most relevant jobs from the list below. Return ONLY a JSON array of job matches, ordered by relevance (most relevant first).

Resume Content:
%s

---

Available Jobs:
%s

---

Return exactly %d matches in this JSON format (no additional text):
[
  {
    "jobId": "JOB-XXX",
    "relevanceScore": 95,
    "matchReasons": ["reason 1", "reason 2", "reason 3"]
  }
]

Relevance score should be 0-100. Match reasons should be specific and concise.`, resumeText, jobsText.String(), limit)

	return []*schema.Message{
		schema.SystemMessage("You are a job matching AI that returns only valid JSON arrays."),
		schema.UserMessage(prompt),
	}
}
