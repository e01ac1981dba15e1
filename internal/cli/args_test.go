package cli

import "testing"

func strPtr(s string) *string { return &s }

func TestCaptureCmdValidate(t *testing.T) {
	tests := []struct {
		name    string
		cmd     CaptureCmd
		wantErr bool
	}{
		{"stdin only", CaptureCmd{}, false},
		{"positional text", CaptureCmd{Text: strPtr("hello")}, false},
		{"clipboard", CaptureCmd{Clipboard: true}, false},
		{"text and clipboard conflict", CaptureCmd{Text: strPtr("hello"), Clipboard: true}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cmd.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestClearCmdValidate(t *testing.T) {
	tests := []struct {
		rng     string
		wantErr bool
	}{
		{"hour", false},
		{"day", false},
		{"week", false},
		{"month", false},
		{"all", false},
		{"year", true},
		{"", true},
		{"Week", true},
	}

	for _, tt := range tests {
		t.Run(tt.rng, func(t *testing.T) {
			cmd := ClearCmd{Range: tt.rng}
			err := cmd.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate(%q) error = %v, wantErr %v", tt.rng, err, tt.wantErr)
			}
		})
	}
}

func TestDeleteCmdValidate(t *testing.T) {
	tests := []struct {
		name    string
		cmd     DeleteCmd
		wantErr bool
	}{
		{"ids only", DeleteCmd{IDs: []string{"01J"}}, false},
		{"empty trash only", DeleteCmd{EmptyTrash: true}, false},
		{"neither", DeleteCmd{}, true},
		{"both", DeleteCmd{IDs: []string{"01J"}, EmptyTrash: true}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cmd.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCategoryCmdValidate(t *testing.T) {
	tests := []struct {
		name    string
		cmd     CategoryCmd
		wantErr bool
	}{
		{"create", CategoryCmd{Create: &CategoryCreateCmd{Name: "work"}}, false},
		{"list", CategoryCmd{List: &CategoryListCmd{}}, false},
		{"delete", CategoryCmd{Delete: &CategoryDeleteCmd{Name: "work"}}, false},
		{"no subcommand", CategoryCmd{}, true},
		{"blank create name", CategoryCmd{Create: &CategoryCreateCmd{Name: "   "}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cmd.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestArgsValidate_Dispatch(t *testing.T) {
	args := Args{Delete: &DeleteCmd{}}
	if err := args.Validate(); err == nil {
		t.Error("Validate() expected error for empty delete command")
	}

	args = Args{List: &ListCmd{}}
	if err := args.Validate(); err != nil {
		t.Errorf("Validate() error = %v for list command", err)
	}
}
