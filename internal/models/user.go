package models

// User is both a reporter and an assignee; it is also the performer of activity entries.
type User struct {
	ID   string `json:"id" bson:"_id" db:"id"`
	Name string `json:"name" bson:"name" db:"name"`
}

// Project owns tasks; its name seeds the task alias.
type Project struct {
	ID          string `json:"id" bson:"_id" db:"id"`
	ProjectName string `json:"projectName" bson:"projectName" db:"project_name"`
}
