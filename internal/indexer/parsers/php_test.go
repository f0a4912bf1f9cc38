package parsers

import (
	"testing"

	"github.com/mvp-joe/cortex-positions/internal/symbols"
	"github.com/stretchr/testify/assert"
)

// Test Plan for PHP Adapter:
// - namespace A\B emits one namespace per segment
// - Interface methods without bodies are declarations
// - __construct and __destruct are the constructor and destructor
// - Properties anchor after the $ sigil; class constants are fields
// - Enum cases are scoped to their enum

const phpSource = `<?php
namespace App\Models;

interface HasName {
    public function name(): string;
}

class User {
    const TABLE = 'users';
    private $email;
    public function __construct($email) {
        $this->email = $email;
    }
    public function __destruct() {}
    public function name(): string { return $this->email; }
}

enum Status {
    case Active;
}

function helper() {}
`

func TestPHPAdapter(t *testing.T) {
	t.Parallel()

	res := extractSource(t, "php", phpSource)
	assert.Equal(t, "php", res.Language)

	root := []string{}
	user := []string{"User"}
	assertWants(t, res, []want{
		{"App", symbols.KindNamespace, 2, 10, root, ""},
		{"Models", symbols.KindNamespace, 2, 14, []string{"App"}, ""},
		{"HasName", symbols.KindClass, 4, 10, root, ""},
		{"name", symbols.KindMethod, 5, 20, []string{"HasName"}, symbols.FormDeclaration},
		{"User", symbols.KindClass, 8, 6, root, ""},
		{"TABLE", symbols.KindField, 9, 10, user, ""},
		{"email", symbols.KindField, 10, 13, user, ""},
		{"__construct", symbols.KindConstructor, 11, 20, user, symbols.FormDefinition},
		{"__destruct", symbols.KindDestructor, 14, 20, user, ""},
		{"name", symbols.KindMethod, 15, 20, user, symbols.FormDefinition},
		{"Status", symbols.KindEnum, 18, 5, root, ""},
		{"Active", symbols.KindEnumMember, 19, 9, []string{"Status"}, ""},
		{"helper", symbols.KindFunction, 22, 9, root, ""},
	})
}
