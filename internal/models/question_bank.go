package models

import "time"

// QuestionBankItem is a question assigned to an interview. Rows with an
// empty InterviewID form the default set.
type QuestionBankItem struct {
	ID          uint      `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	InterviewID string    `gorm:"column:interview_id;type:text;index:idx_bank_interview_pos,priority:1" json:"interview_id"`
	Position    int       `gorm:"column:position;index:idx_bank_interview_pos,priority:2" json:"id"`
	Text        string    `gorm:"column:question;type:text" json:"question"`
	Skill       string    `gorm:"column:skill;type:text" json:"skill"`
	Type        string    `gorm:"column:type;type:text" json:"type"`
	TimeLimit   int       `gorm:"column:time_limit" json:"time_limit"`
	CreatedAt   time.Time `gorm:"column:created_at;type:timestamptz" json:"-"`
}

func (QuestionBankItem) TableName() string { return "question_bank" }

func (q QuestionBankItem) Question() Question {
	return Question{ID: q.Position, Text: q.Text, Skill: q.Skill, Type: q.Type, TimeLimit: q.TimeLimit}
}

// DefaultQuestions is served when no questions are assigned to an interview.
func DefaultQuestions() []QuestionBankItem {
	return []QuestionBankItem{
		{Position: 1, Skill: "Python", Type: "technical", TimeLimit: 120,
			Text: "Tell me about your experience with Python programming. What projects have you built?"},
		{Position: 2, Skill: "Problem Solving", Type: "technical", TimeLimit: 90,
			Text: "How do you approach debugging a complex issue in a production environment?"},
		{Position: 3, Skill: "Project Management", Type: "behavioral", TimeLimit: 150,
			Text: "Describe a challenging project you worked on and how you overcame obstacles."},
		{Position: 4, Skill: "Best Practices", Type: "technical", TimeLimit: 100,
			Text: "How do you ensure code quality and maintainability in your projects?"},
		{Position: 5, Skill: "Learning", Type: "behavioral", TimeLimit: 120,
			Text: "Tell me about a time you had to learn a new technology quickly. How did you approach it?"},
	}
}

const DefaultEstimatedDuration = "15-20 minutes"
