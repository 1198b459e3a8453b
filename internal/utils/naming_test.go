package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToSnakeCase(t *testing.T) {
	tests := map[string]string{
		"":                          "",
		"x":                         "x",
		"X":                         "x",
		"userRestrictions":          "user_restrictions",
		"ThisIsATest":               "this_is_a_test",
		"PFAndESI":                  "pf_and_esi",
		"AbcAndJkl":                 "abc_and_jkl",
		"EmployeeID":                "employee_id",
		"SKU_ID":                    "sku_id",
		"FieldX":                    "field_x",
		"HTTPAndSMTP":               "http_and_smtp",
		"HTTPServerHandlerForURLID": "http_server_handler_for_url_id",
		"UUID":                      "uuid",
		"HTTPURL":                   "http_url",
		"HTTP_URL":                  "http_url",
		"SHA256Hash":                "sha256_hash",
		"SHA256HASH":                "sha256_hash",
		"UserID":                    "user_id",
		"APIKey":                    "api_key",
		"HTTPRequest":               "http_request",
		"XMLParser":                 "xml_parser",
		"JSONData":                  "json_data",
		"IPAddress":                 "ip_address",
		"URLPath":                   "url_path",
		"SSHKey":                    "ssh_key",
		"TLSConfig":                 "tls_config",
		"CPUUsage":                  "cpu_usage",
		"RAMSize":                   "ram_size",
		"HappyBodyIDs":              "happy_body_ids",
		"OrderLine":                 "order_line",
	}

	for input, want := range tests {
		assert.Equal(t, want, ToSnakeCase(input), input)
	}
}

func TestExportName(t *testing.T) {
	tests := []struct {
		input  string
		want   string
		wantOK bool
	}{
		{"name", "Name", true},
		{"Name", "Name", true},
		{"userID", "UserID", true},
		{"x", "X", true},
		{"élan", "Élan", true},
		{"_hidden", "", false},
		{"_", "", false},
		{"名字", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ExportName(tt.input)
		assert.Equal(t, tt.wantOK, ok, tt.input)
		assert.Equal(t, tt.want, got, tt.input)
	}
}

func TestReceiverName(t *testing.T) {
	tests := []struct {
		typeName string
		taken    map[string]bool
		want     string
	}{
		{"User", nil, "u"},
		{"pair", nil, "p"},
		{"Tree", map[string]bool{"t": true}, "recv"},
		{"Tree", map[string]bool{"t": true, "recv": true}, "recv0"},
		{"Tree", map[string]bool{"t": true, "recv": true, "recv0": true}, "recv1"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ReceiverName(tt.typeName, tt.taken))
	}
}
