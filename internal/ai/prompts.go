package ai

import (
	"fmt"
	"strings"

	"github.com/hireloop/jobboard-api/internal/model"
)

func parseCVPrompt(cvText string) string {
	return fmt.Sprintf(`You are a CV parser. Extract structured data from the CV text below.
Return ONLY a JSON object with this exact shape, no prose:
{
  "basic_info": {"phone": "", "location": "", "bio": ""},
  "education": [{"degree": "", "institution": "", "year": "", "grade": ""}],
  "experience": [{"title": "", "company": "", "duration": "", "description": ""}],
  "skills": [{"name": "", "level": "Beginner|Intermediate|Advanced|Expert"}]
}
Omit entries you cannot find. Keep descriptions under 200 characters.

CV text:
%s`, cvText)
}

func matchJobsPrompt(profile *model.Profile, jobs []*model.Job) string {
	var b strings.Builder
	b.WriteString(`You are a job matching engine. Score how well the candidate fits each job.
Return ONLY a JSON array: [{"job_id": "<id>", "score": 0-100, "reason": "<one sentence>"}]
Score on skill overlap, experience relevance and seniority fit.

Candidate skills: `)
	for i, s := range profile.Skills {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(s.Name)
		if s.Level != "" {
			b.WriteString(" (" + s.Level + ")")
		}
	}
	b.WriteString("\nCandidate experience:\n")
	for _, e := range profile.Experience {
		fmt.Fprintf(&b, "- %s at %s (%s)\n", e.Title, e.Company, e.Duration)
	}
	b.WriteString("\nJobs:\n")
	for _, j := range jobs {
		fmt.Fprintf(&b, "- id=%s title=%q skills=%s experience=%q\n",
			j.ID, j.Title, strings.Join(j.Skills, ","), j.Experience)
	}
	return b.String()
}

func rankCandidatesPrompt(job *model.Job, applicants []*model.Applicant) string {
	var b strings.Builder
	fmt.Fprintf(&b, `You are a recruiting assistant. Rank the applicants for this role.
Return ONLY a JSON array ordered best first:
[{"application_id": "<id>", "score": 0-100, "strengths": ["..."], "gaps": ["..."]}]

Role: %s
Required skills: %s
Experience: %s

Applicants:
`, job.Title, strings.Join(job.Skills, ", "), job.Experience)
	for _, a := range applicants {
		fmt.Fprintf(&b, "- application_id=%s name=%q", a.ID, a.Candidate.Name)
		if a.Profile != nil {
			var skills []string
			for _, s := range a.Profile.Skills {
				skills = append(skills, s.Name)
			}
			fmt.Fprintf(&b, " skills=%s", strings.Join(skills, ","))
			for _, e := range a.Profile.Experience {
				fmt.Fprintf(&b, " exp=%q", e.Title+" at "+e.Company)
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

func applicationInsightsPrompt(job *model.Job, profile *model.Profile) string {
	var skills []string
	for _, s := range profile.Skills {
		skills = append(skills, s.Name)
	}
	return fmt.Sprintf(`You are a career coach. Assess this candidate's fit for the role.
Return ONLY a JSON object:
{"fit_score": 0-100, "summary": "<two sentences>", "matching_skills": ["..."], "missing_skills": ["..."], "suggestions": ["..."]}

Role: %s at %s
Required skills: %s
Role description: %s

Candidate skills: %s`,
		job.Title, job.Company,
		strings.Join(job.Skills, ", "),
		job.Description,
		strings.Join(skills, ", "))
}

func outreachDraftPrompt(recruiterName string, job *model.Job, candidate *model.PublicUser, profile *model.Profile) string {
	var highlights []string
	for _, s := range profile.Skills {
		highlights = append(highlights, s.Name)
	}
	return fmt.Sprintf(`You are writing on behalf of recruiter %s. Draft a short, personal
outreach message inviting the candidate to discuss a role.
Return ONLY a JSON object: {"subject": "...", "body": "..."}
Keep the body under 120 words, reference one or two of the candidate's skills, no placeholders.

Role: %s at %s
Candidate name: %s
Candidate skills: %s`,
		recruiterName,
		job.Title, job.Company,
		candidate.Name,
		strings.Join(highlights, ", "))
}
