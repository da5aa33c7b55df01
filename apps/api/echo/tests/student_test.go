package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/icpschool/schoolpay/core/student"
	testutil "github.com/icpschool/schoolpay/tests"
)

func listPath(grade, strand, section string) string {
	return "/v1/students/" + url.PathEscape(grade) + "/" + url.PathEscape(strand) + "/" + url.PathEscape(section)
}

func entry(s student.Student) student.DirectoryEntry {
	return student.DirectoryEntry{Student: s, TotalBalance: s.TotalBalance()}
}

func Test_studentApi_list(t *testing.T) {
	db.Reset()

	adm := testutil.CreateAdmin(t, adminRepo, "adm1", "Principal", "principal@icpadmin.com")
	parent := testutil.CreateAdmin(t, adminRepo, "usr1", "Parent", "parent@gmail.com")
	adminToken := getToken(t, adm)

	alice := testutil.CreateStudent(t, studentRepo, "2024-0001", "Alice Ramos", student.GradeEleven, student.StrandSTEM, student.SectionOne,
		student.Balance{ID: "b1", Description: "Tuition Fee", Amount: decimal.NewFromInt(15000), Status: student.StatusUnpaid},
		student.Balance{ID: "b2", Description: "Lab Fee", Amount: decimal.NewFromInt(500), Status: student.StatusPaid},
	)
	ben := testutil.CreateStudent(t, studentRepo, "2024-0002", "Ben Cruz", student.GradeEleven, student.StrandSTEM, student.SectionOne)
	carla := testutil.CreateStudent(t, studentRepo, "2024-0003", "Carla Dizon", student.GradeTwelve, student.StrandABM, student.SectionTwo)

	tests := []httpTest{
		{
			name: "Auth required", path: listPath(student.GradeEleven, student.StrandSTEM, student.SectionOne),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "Admin required", path: listPath(student.GradeEleven, student.StrandSTEM, student.SectionOne),
			token: getToken(t, parent), wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermissionDenied),
		},
		{
			name: "Empty grouping is 200, not 404", path: listPath(student.GradeTwelve, student.StrandICT, student.SectionThree),
			token: adminToken, wantCode: http.StatusOK, wantData: marchallList(t),
		},
		{
			name: "Grouping with students", path: listPath(student.GradeEleven, student.StrandSTEM, student.SectionOne),
			token: adminToken, wantCode: http.StatusOK, wantData: marchallList(t, entry(alice), entry(ben)),
		},
		{
			name: "Other grouping", path: listPath(student.GradeTwelve, student.StrandABM, student.SectionTwo),
			token: adminToken, wantCode: http.StatusOK, wantData: marchallList(t, entry(carla)),
		},
		{
			name: "Unknown grade", path: listPath("Grade 13", student.StrandSTEM, student.SectionOne),
			token: adminToken, wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"grade": "invalid grade"}),
		},
		{
			name: "Unknown strand", path: listPath(student.GradeEleven, "TVL", student.SectionOne),
			token: adminToken, wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"strand": "invalid strand"}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_studentApi_query(t *testing.T) {
	db.Reset()

	adm := testutil.CreateAdmin(t, adminRepo, "adm1", "Principal", "principal@icpadmin.com")
	adminToken := getToken(t, adm)

	t.Run("Empty directory", func(t *testing.T) {
		tt := httpTest{method: http.MethodGet, path: "/v1/students", token: adminToken, wantCode: http.StatusOK, wantData: marchallList(t)}
		req, rec := newAuthRequest(tt.method, tt.path, tt.token)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	alice := testutil.CreateStudent(t, studentRepo, "2024-0001", "Alice Ramos", student.GradeEleven, student.StrandSTEM, student.SectionOne)
	carla := testutil.CreateStudent(t, studentRepo, "2024-0003", "Carla Dizon", student.GradeTwelve, student.StrandABM, student.SectionTwo)

	t.Run("Whole directory", func(t *testing.T) {
		tt := httpTest{
			method: http.MethodGet, path: "/v1/students", token: adminToken,
			wantCode: http.StatusOK, wantData: marchallList(t, alice, carla),
		}
		req, rec := newAuthRequest(tt.method, tt.path, tt.token)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})
}

func Test_studentApi_create(t *testing.T) {
	db.Reset()

	adm := testutil.CreateAdmin(t, adminRepo, "adm1", "Principal", "principal@icpadmin.com")
	adminToken := getToken(t, adm)

	testutil.CreateStudent(t, studentRepo, "12345", "Jane Doe", student.GradeEleven, student.StrandSTEM, student.SectionOne)

	requiredErrs := map[string]string{
		"studentNumber": "this field is required",
		"name":          "this field is required",
		"grade":         "this field is required",
		"strand":        "this field is required",
		"section":       "this field is required",
	}

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Missing fields", token: adminToken, body: []byte(`{}`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, requiredErrs),
		},
		{
			name:  "Duplicate identity rejected",
			token: adminToken,
			body: marchallObj(t, student.NewStudent{
				StudentNumber: "12345", Name: "Jane Doe",
				Grade: student.GradeEleven, Strand: student.StrandSTEM, Section: student.SectionOne,
			}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "The Student Already Exists"}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/students"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("Created", func(t *testing.T) {
		body := marchallObj(t, student.NewStudent{
			StudentNumber: "67890", Name: "John Roe",
			Grade: student.GradeTwelve, Strand: student.StrandHUMSS, Section: student.SectionThree,
		})
		req, rec := newAuthRequest(http.MethodPost, "/v1/students", adminToken, body)
		app.ServeHTTP(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var s student.Student
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &s))
		assert.NotEmpty(t, s.ID)
		assert.Equal(t, "John Roe", s.Name)
		assert.Equal(t, []student.Balance{}, s.Balances)
		assert.False(t, s.CreatedAt.IsZero())
	})

	t.Run("Duplicate creates no second document", func(t *testing.T) {
		students, err := studentRepo.QueryAllStudents(context.Background())
		require.NoError(t, err)
		assert.Len(t, students, 2)
	})
}

func Test_studentApi_update(t *testing.T) {
	db.Reset()

	adm := testutil.CreateAdmin(t, adminRepo, "adm1", "Principal", "principal@icpadmin.com")
	adminToken := getToken(t, adm)

	testutil.CreateStudent(t, studentRepo, "12345", "Jane Doe", student.GradeEleven, student.StrandSTEM, student.SectionOne)
	target := testutil.CreateStudent(t, studentRepo, "67890", "John Roe", student.GradeEleven, student.StrandSTEM, student.SectionOne)

	t.Run("Unknown student", func(t *testing.T) {
		body := marchallObj(t, student.UpdateStudent{Grade: student.GradeTwelve})
		req, rec := newAuthRequest(http.MethodPut, "/v1/students/missing", adminToken, body)
		app.ServeHTTP(rec, req)

		tt := httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "student not found"})}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("Renaming onto an existing identity", func(t *testing.T) {
		body := marchallObj(t, student.UpdateStudent{StudentNumber: "12345", Name: "Jane Doe"})
		req, rec := newAuthRequest(http.MethodPut, "/v1/students/"+target.ID, adminToken, body)
		app.ServeHTTP(rec, req)

		tt := httpTest{wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "The Student Already Exists"})}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("Partial update keeps empty fields", func(t *testing.T) {
		body := marchallObj(t, student.UpdateStudent{Grade: student.GradeTwelve, Section: student.SectionTwo})
		req, rec := newAuthRequest(http.MethodPut, "/v1/students/"+target.ID, adminToken, body)
		app.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var s student.Student
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &s))
		assert.Equal(t, "67890", s.StudentNumber)
		assert.Equal(t, "John Roe", s.Name)
		assert.Equal(t, student.GradeTwelve, s.Grade)
		assert.Equal(t, student.StrandSTEM, s.Strand)
		assert.Equal(t, student.SectionTwo, s.Section)
	})
}

func Test_studentApi_destroy(t *testing.T) {
	db.Reset()

	adm := testutil.CreateAdmin(t, adminRepo, "adm1", "Principal", "principal@icpadmin.com")
	adminToken := getToken(t, adm)

	s := testutil.CreateStudent(t, studentRepo, "2024-0001", "Alice Ramos", student.GradeEleven, student.StrandSTEM, student.SectionOne,
		student.Balance{ID: "b1", Description: "Lab Fee", Amount: decimal.NewFromInt(500), Status: student.StatusUnpaid},
	)

	t.Run("Deleted with its balances", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/students/"+s.ID, adminToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNoContent}, rec)

		req, rec = newAuthRequest(http.MethodGet, "/v1/students/"+s.ID+"/balances", adminToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "student not found"})}, rec)
	})

	t.Run("Already gone", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/students/"+s.ID, adminToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "student not found"})}, rec)
	})
}

func Test_studentApi_balances(t *testing.T) {
	db.Reset()

	adm := testutil.CreateAdmin(t, adminRepo, "adm1", "Principal", "principal@icpadmin.com")
	adminToken := getToken(t, adm)

	s := testutil.CreateStudent(t, studentRepo, "2024-0001", "Alice Ramos", student.GradeEleven, student.StrandSTEM, student.SectionOne)
	balancesPath := "/v1/students/" + s.ID + "/balances"

	getSummary := func(t *testing.T) student.BalanceSummary {
		req, rec := newAuthRequest(http.MethodGet, balancesPath, adminToken)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var summary student.BalanceSummary
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
		return summary
	}

	t.Run("No balances yet", func(t *testing.T) {
		summary := getSummary(t)
		assert.Empty(t, summary.Balances)
		assert.True(t, summary.TotalBalance.IsZero())
	})

	var labFee student.Balance
	t.Run("Append one", func(t *testing.T) {
		body := marchallObj(t, student.NewBalance{Description: "Lab Fee", Amount: decimal.NewFromInt(500), Status: student.StatusUnpaid})
		req, rec := newAuthRequest(http.MethodPost, "/v1/students/"+s.ID+"/balance", adminToken, body)
		app.ServeHTTP(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &labFee))
		assert.NotEmpty(t, labFee.ID)
		assert.Equal(t, student.StatusUnpaid, labFee.Status)

		summary := getSummary(t)
		require.Len(t, summary.Balances, 1)
		assert.True(t, summary.TotalBalance.Equal(decimal.NewFromInt(500)))
	})

	t.Run("Negative amount rejected", func(t *testing.T) {
		body := marchallObj(t, student.NewBalance{Description: "Refund", Amount: decimal.NewFromInt(-5)})
		req, rec := newAuthRequest(http.MethodPost, "/v1/students/"+s.ID+"/balance", adminToken, body)
		app.ServeHTTP(rec, req)

		tt := httpTest{wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"amount": "amount cannot be negative"})}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("Replace the sequence", func(t *testing.T) {
		body := marchallObj(t, map[string]interface{}{
			"updatedBalances": []student.Balance{
				labFee,
				{Description: "Tuition Fee", Amount: decimal.NewFromInt(15000), Status: student.StatusUnpaid},
			},
		})
		req, rec := newAuthRequest(http.MethodPost, balancesPath, adminToken, body)
		app.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var summary student.BalanceSummary
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
		require.Len(t, summary.Balances, 2)
		for _, b := range summary.Balances {
			assert.NotEmpty(t, b.ID)
		}
		assert.True(t, summary.TotalBalance.Equal(decimal.NewFromInt(15500)))
	})

	t.Run("Edit one in place", func(t *testing.T) {
		body := marchallObj(t, student.UpdateBalance{Description: "Lab Fee", Amount: decimal.NewFromInt(500), Status: student.StatusPaid})
		req, rec := newAuthRequest(http.MethodPut, balancesPath+"/"+labFee.ID, adminToken, body)
		app.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		summary := getSummary(t)
		assert.True(t, summary.TotalBalance.Equal(decimal.NewFromInt(15000)))
	})

	t.Run("Edit unknown id", func(t *testing.T) {
		body := marchallObj(t, student.UpdateBalance{Description: "x", Amount: decimal.NewFromInt(1), Status: student.StatusPaid})
		req, rec := newAuthRequest(http.MethodPut, balancesPath+"/balance_123", adminToken, body)
		app.ServeHTTP(rec, req)

		tt := httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "balance not found"})}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("Delete is tolerant of unknown ids", func(t *testing.T) {
		before := getSummary(t)

		req, rec := newAuthRequest(http.MethodDelete, balancesPath+"/balance_123", adminToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNoContent}, rec)

		assert.Equal(t, before, getSummary(t))
	})

	t.Run("Delete one", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, balancesPath+"/"+labFee.ID, adminToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNoContent}, rec)

		summary := getSummary(t)
		require.Len(t, summary.Balances, 1)
		assert.Equal(t, "Tuition Fee", summary.Balances[0].Description)
	})
}

func Test_studentApi_import(t *testing.T) {
	db.Reset()

	adm := testutil.CreateAdmin(t, adminRepo, "adm1", "Principal", "principal@icpadmin.com")
	adminToken := getToken(t, adm)

	t.Run("Missing file", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/students/import", adminToken)
		app.ServeHTTP(rec, req)

		tt := httpTest{wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "a spreadsheet file is required"})}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("Imported", func(t *testing.T) {
		f := excelize.NewFile()
		sheet := f.GetSheetName(0)
		rows := [][]interface{}{
			{"studentNumber", "name", "grade", "strand", "section"},
			{"2024-0001", "Alice Ramos", student.GradeEleven, student.StrandSTEM, student.SectionOne},
			{"2024-0002", "Ben Cruz", student.GradeTwelve, student.StrandGAS, student.SectionTwo},
		}
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(sheet, cell, &row))
		}

		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, err := mw.CreateFormFile("file", "students.xlsx")
		require.NoError(t, err)
		require.NoError(t, f.Write(part))
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/v1/students/import", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+adminToken)
		rec := httptest.NewRecorder()
		app.ServeHTTP(rec, req)

		tt := httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, map[string]int{"imported": 2})}
		checkCodeAndData(t, tt, rec)

		students, err := studentRepo.QueryAllStudents(context.Background())
		require.NoError(t, err)
		assert.Len(t, students, 2)
	})
}
