package config

import (
	"time"

	"crm-pipeline/internal/model"
)

// Default returns the built-in configuration: the four CRM list pages
// backed by uploaded datasets. Entities from a config file are merged
// over these by name.
func Default() *Config {
	return &Config{
		RefreshInterval: 30 * time.Second,
		Entities: map[string]EntityConfig{
			"leads":        leadsEntity(),
			"cases":        casesEntity(),
			"closed_cases": closedCasesEntity(),
			"emails":       emailsEntity(),
		},
	}
}

func where(c model.FilterCriteria) *model.FilterCriteria {
	return &c
}

func leadsEntity() EntityConfig {
	return EntityConfig{
		Title:         "Leads",
		SearchFields:  []string{"name", "email", "phone", "company"},
		CategoryField: "source",
		StatusField:   "status",
		DateField:     "createdAt",
		DefaultSort:   model.SortSpec{Key: "createdAt", Direction: model.SortDesc},
		Source:        SourceConfig{Type: SourceStore, Transforms: []string{"trimStrings"}},
		Columns: []model.Column{
			{Header: "Name", Field: "name"},
			{Header: "Email", Field: "email"},
			{Header: "Phone", Field: "phone"},
			{Header: "Source", Field: "source"},
			{Header: "Status", Field: "status"},
			{Header: "Value", Field: "value"},
			{Header: "Created", Field: "createdAt"},
		},
		Metrics: []model.MetricSpec{
			{Name: "totalLeads", Kind: model.MetricCount},
			{Name: "newThisMonth", Kind: model.MetricCount, Where: where(model.FilterCriteria{DateFilter: model.DateThisMonth})},
			{Name: "conversionRate", Kind: model.MetricPercentage, Where: where(model.FilterCriteria{StatusFilter: "converted"})},
			{Name: "pipelineValue", Kind: model.MetricSum, Field: "value"},
		},
	}
}

func casesEntity() EntityConfig {
	return EntityConfig{
		Title:         "Cases",
		SearchFields:  []string{"caseNumber", "customer.name", "policyNumber", "subject"},
		CategoryField: "type",
		StatusField:   "status",
		DateField:     "createdAt",
		DefaultSort:   model.SortSpec{Key: "createdAt", Direction: model.SortDesc},
		Source:        SourceConfig{Type: SourceStore},
		Columns: []model.Column{
			{Header: "Case #", Field: "caseNumber"},
			{Header: "Customer", Field: "customer.name"},
			{Header: "Type", Field: "type"},
			{Header: "Status", Field: "status"},
			{Header: "Priority", Field: "priority"},
			{Header: "Premium", Field: "premium"},
			{Header: "Created", Field: "createdAt"},
		},
		Metrics: []model.MetricSpec{
			{Name: "totalCases", Kind: model.MetricCount},
			{Name: "openCases", Kind: model.MetricCount, Where: where(model.FilterCriteria{StatusFilter: "open"})},
			{Name: "highPriorityShare", Kind: model.MetricPercentage, Where: where(model.FilterCriteria{StatusField: "priority", StatusFilter: "high"})},
			{Name: "totalPremium", Kind: model.MetricSum, Field: "premium"},
			{Name: "averagePremium", Kind: model.MetricAvg, Field: "premium"},
		},
	}
}

func closedCasesEntity() EntityConfig {
	return EntityConfig{
		Title:         "Closed Cases",
		SearchFields:  []string{"caseNumber", "customer.name", "resolution"},
		CategoryField: "type",
		StatusField:   "outcome",
		DateField:     "closedDate",
		DefaultSort:   model.SortSpec{Key: "closedDate", Direction: model.SortDesc},
		Source:        SourceConfig{Type: SourceStore},
		Columns: []model.Column{
			{Header: "Case #", Field: "caseNumber"},
			{Header: "Customer", Field: "customer.name"},
			{Header: "Type", Field: "type"},
			{Header: "Outcome", Field: "outcome"},
			{Header: "Resolution Days", Field: "resolutionDays"},
			{Header: "Closed", Field: "closedDate"},
		},
		Metrics: []model.MetricSpec{
			{Name: "closedCases", Kind: model.MetricCount},
			{Name: "closedThisMonth", Kind: model.MetricCount, Where: where(model.FilterCriteria{DateFilter: model.DateThisMonth})},
			{Name: "approvalRate", Kind: model.MetricPercentage, Where: where(model.FilterCriteria{StatusFilter: "approved"})},
			{Name: "avgResolutionDays", Kind: model.MetricAvg, Field: "resolutionDays"},
			{Name: "longestResolutionDays", Kind: model.MetricMax, Field: "resolutionDays"},
		},
	}
}

func emailsEntity() EntityConfig {
	return EntityConfig{
		Title:         "Inbox",
		SearchFields:  []string{"subject", "from", "preview"},
		CategoryField: "category",
		StatusField:   "status",
		DateField:     "receivedAt",
		DefaultSort:   model.SortSpec{Key: "receivedAt", Direction: model.SortDesc},
		Source:        SourceConfig{Type: SourceStore},
		Columns: []model.Column{
			{Header: "From", Field: "from"},
			{Header: "Subject", Field: "subject"},
			{Header: "Category", Field: "category"},
			{Header: "Status", Field: "status"},
			{Header: "Received", Field: "receivedAt"},
		},
		Metrics: []model.MetricSpec{
			{Name: "total", Kind: model.MetricCount},
			{Name: "unread", Kind: model.MetricCount, Where: where(model.FilterCriteria{StatusFilter: "unread"})},
			{Name: "today", Kind: model.MetricCount, Where: where(model.FilterCriteria{DateFilter: model.DateToday})},
			{Name: "unreadRate", Kind: model.MetricPercentage, Where: where(model.FilterCriteria{StatusFilter: "unread"})},
		},
	}
}
