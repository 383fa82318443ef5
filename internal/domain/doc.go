// Package domain contains the core business entities of the collaboration
// backend as seen by the side-effect pipeline: users and their delivery
// preferences, projects, tasks, comments, notifications and automation rules.
// It is independent of any specific infrastructure or delivery mechanism.
package domain
