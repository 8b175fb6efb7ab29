package schema

const EmployeesTable = "employees"

// Employees describes the IBM HR attrition dataset loaded into the store.
var Employees = newDescriptor(EmployeesTable, []Column{
	{Name: "Age", Kind: KindNumeric},
	{Name: "Attrition", Kind: KindCategorical, Values: []string{"Yes", "No"}, NumeralLiterals: map[string]string{"1": "Yes", "0": "No"}},
	{Name: "BusinessTravel", Kind: KindCategorical, Values: []string{"Travel_Rarely", "Travel_Frequently", "Non-Travel"}},
	{Name: "DailyRate", Kind: KindNumeric},
	{Name: "Department", Kind: KindCategorical, Values: []string{"Sales", "Research & Development", "Human Resources"}},
	{Name: "DistanceFromHome", Kind: KindNumeric},
	{Name: "Education", Kind: KindNumeric},
	{Name: "EducationField", Kind: KindCategorical, Values: []string{"Life Sciences", "Medical", "Marketing", "Technical Degree", "Human Resources", "Other"}},
	{Name: "EmployeeCount", Kind: KindNumeric},
	{Name: "EmployeeNumber", Kind: KindNumeric},
	{Name: "EnvironmentSatisfaction", Kind: KindNumeric},
	{Name: "Gender", Kind: KindCategorical, Values: []string{"Female", "Male"}},
	{Name: "HourlyRate", Kind: KindNumeric},
	{Name: "JobInvolvement", Kind: KindNumeric},
	{Name: "JobLevel", Kind: KindNumeric},
	{Name: "JobRole", Kind: KindText},
	{Name: "JobSatisfaction", Kind: KindNumeric},
	{Name: "MaritalStatus", Kind: KindCategorical, Values: []string{"Single", "Married", "Divorced"}},
	{Name: "MonthlyIncome", Kind: KindNumeric},
	{Name: "MonthlyRate", Kind: KindNumeric},
	{Name: "NumCompaniesWorked", Kind: KindNumeric},
	{Name: "Over18", Kind: KindCategorical, Values: []string{"Y"}},
	{Name: "OverTime", Kind: KindCategorical, Values: []string{"Yes", "No"}, NumeralLiterals: map[string]string{"1": "Yes", "0": "No"}},
	{Name: "PercentSalaryHike", Kind: KindNumeric},
	{Name: "PerformanceRating", Kind: KindNumeric},
	{Name: "RelationshipSatisfaction", Kind: KindNumeric},
	{Name: "StandardHours", Kind: KindNumeric},
	{Name: "StockOptionLevel", Kind: KindNumeric},
	{Name: "TotalWorkingYears", Kind: KindNumeric},
	{Name: "TrainingTimesLastYear", Kind: KindNumeric},
	{Name: "WorkLifeBalance", Kind: KindNumeric},
	{Name: "YearsAtCompany", Kind: KindNumeric},
	{Name: "YearsInCurrentRole", Kind: KindNumeric},
	{Name: "YearsSinceLastPromotion", Kind: KindNumeric},
	{Name: "YearsWithCurrManager", Kind: KindNumeric},
})
