package dataset

import (
	"fmt"
	"reflect"
	"strings"
)

// Employee is one row of the IBM HR attrition dataset. Parquet column names
// match the employees descriptor exactly.
type Employee struct {
	Age                      int64  `parquet:"Age"`
	Attrition                string `parquet:"Attrition"`
	BusinessTravel           string `parquet:"BusinessTravel"`
	DailyRate                int64  `parquet:"DailyRate"`
	Department               string `parquet:"Department"`
	DistanceFromHome         int64  `parquet:"DistanceFromHome"`
	Education                int64  `parquet:"Education"`
	EducationField           string `parquet:"EducationField"`
	EmployeeCount            int64  `parquet:"EmployeeCount"`
	EmployeeNumber           int64  `parquet:"EmployeeNumber"`
	EnvironmentSatisfaction  int64  `parquet:"EnvironmentSatisfaction"`
	Gender                   string `parquet:"Gender"`
	HourlyRate               int64  `parquet:"HourlyRate"`
	JobInvolvement           int64  `parquet:"JobInvolvement"`
	JobLevel                 int64  `parquet:"JobLevel"`
	JobRole                  string `parquet:"JobRole"`
	JobSatisfaction          int64  `parquet:"JobSatisfaction"`
	MaritalStatus            string `parquet:"MaritalStatus"`
	MonthlyIncome            int64  `parquet:"MonthlyIncome"`
	MonthlyRate              int64  `parquet:"MonthlyRate"`
	NumCompaniesWorked       int64  `parquet:"NumCompaniesWorked"`
	Over18                   string `parquet:"Over18"`
	OverTime                 string `parquet:"OverTime"`
	PercentSalaryHike        int64  `parquet:"PercentSalaryHike"`
	PerformanceRating        int64  `parquet:"PerformanceRating"`
	RelationshipSatisfaction int64  `parquet:"RelationshipSatisfaction"`
	StandardHours            int64  `parquet:"StandardHours"`
	StockOptionLevel         int64  `parquet:"StockOptionLevel"`
	TotalWorkingYears        int64  `parquet:"TotalWorkingYears"`
	TrainingTimesLastYear    int64  `parquet:"TrainingTimesLastYear"`
	WorkLifeBalance          int64  `parquet:"WorkLifeBalance"`
	YearsAtCompany           int64  `parquet:"YearsAtCompany"`
	YearsInCurrentRole       int64  `parquet:"YearsInCurrentRole"`
	YearsSinceLastPromotion  int64  `parquet:"YearsSinceLastPromotion"`
	YearsWithCurrManager     int64  `parquet:"YearsWithCurrManager"`
}

var employeeFields = indexEmployeeFields()

func indexEmployeeFields() map[string]int {
	typ := reflect.TypeOf(Employee{})
	fields := make(map[string]int, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		name, _, _ := strings.Cut(typ.Field(i).Tag.Get("parquet"), ",")
		fields[strings.ToLower(name)] = i
	}
	return fields
}

// Values returns the row in descriptor column order.
func (e Employee) Values(columns []string) ([]any, error) {
	value := reflect.ValueOf(e)
	out := make([]any, 0, len(columns))
	for _, column := range columns {
		i, ok := employeeFields[strings.ToLower(column)]
		if !ok {
			return nil, fmt.Errorf("unknown employee column %q", column)
		}
		out = append(out, value.Field(i).Interface())
	}
	return out, nil
}
