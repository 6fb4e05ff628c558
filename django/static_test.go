// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package django

import (
	"errors"
	"strings"
	"testing"

	"go.astrophena.name/djangohooks/testutil"
)

func TestStaticLoader(t *testing.T) {
	cases := map[string]struct {
		files      map[string]string
		module     string
		pythonPath []string
		lookup     string
		wantValue  Value
		wantSet    bool
	}{
		"literal": {
			files:     map[string]string{"mysite/settings.py": "DEBUG = False\n"},
			lookup:    "DEBUG",
			wantValue: false,
			wantSet:   true,
		},
		"last assignment wins": {
			files:     map[string]string{"mysite/settings.py": "DEBUG = True\nDEBUG = False\n"},
			lookup:    "DEBUG",
			wantValue: false,
			wantSet:   true,
		},
		"annotated": {
			files:     map[string]string{"mysite/settings.py": "DEBUG: bool = False\n"},
			lookup:    "DEBUG",
			wantValue: false,
			wantSet:   true,
		},
		"unset": {
			files:  map[string]string{"mysite/settings.py": "SECRET_KEY = 'x'\n"},
			lookup: "DEBUG",
		},
		"bare annotation": {
			files:  map[string]string{"mysite/settings.py": "DEBUG: bool\n"},
			lookup: "DEBUG",
		},
		"expression": {
			files: map[string]string{"mysite/settings.py": `import os
DEBUG = os.environ.get("DEBUG") == "1"
`},
			lookup:    "DEBUG",
			wantValue: Expr(`os.environ.get("DEBUG") == "1"`),
			wantSet:   true,
		},
		"chained": {
			files:     map[string]string{"mysite/settings.py": "DEBUG = TEMPLATE_DEBUG = False\n"},
			lookup:    "TEMPLATE_DEBUG",
			wantValue: false,
			wantSet:   true,
		},
		"integer": {
			files:     map[string]string{"mysite/settings.py": "SESSION_COOKIE_AGE = 1209600\n"},
			lookup:    "SESSION_COOKIE_AGE",
			wantValue: int64(1209600),
			wantSet:   true,
		},
		"conditional": {
			files: map[string]string{"mysite/settings.py": `import sys
DEBUG = False
if "test" in sys.argv:
    DEBUG = True
`},
			lookup:    "DEBUG",
			wantValue: Conditional,
			wantSet:   true,
		},
		"star import": {
			files: map[string]string{
				"mysite/settings/__init__.py": "from mysite.settings.base import *\nDEBUG = False\n",
				"mysite/settings/base.py":     "DEBUG = True\nSECRET_KEY = 'x'\n",
			},
			module:    "mysite.settings",
			lookup:    "SECRET_KEY",
			wantValue: "x",
			wantSet:   true,
		},
		"star import overridden": {
			files: map[string]string{
				"mysite/settings/__init__.py": "from mysite.settings.base import *\nDEBUG = False\n",
				"mysite/settings/base.py":     "DEBUG = True\n",
			},
			module:    "mysite.settings",
			lookup:    "DEBUG",
			wantValue: false,
			wantSet:   true,
		},
		"star import skips private names": {
			files: map[string]string{
				"mysite/settings.py": "from mysite.base import *\n",
				"mysite/base.py":     "_DEBUG = True\n",
			},
			lookup: "_DEBUG",
		},
		"relative import": {
			files: map[string]string{
				"mysite/settings/production.py": "from .base import *\n",
				"mysite/settings/base.py":       "DEBUG = False\n",
			},
			module:    "mysite.settings.production",
			lookup:    "DEBUG",
			wantValue: false,
			wantSet:   true,
		},
		"relative import from parent": {
			files: map[string]string{
				"mysite/settings/production.py": "from ..defaults import DEBUG\n",
				"mysite/defaults.py":            "DEBUG = False\n",
			},
			module:    "mysite.settings.production",
			lookup:    "DEBUG",
			wantValue: false,
			wantSet:   true,
		},
		"aliased import": {
			files: map[string]string{
				"mysite/settings.py": "from mysite.flags import PRODUCTION_DEBUG as DEBUG\n",
				"mysite/flags.py":    "PRODUCTION_DEBUG = False\n",
			},
			lookup:    "DEBUG",
			wantValue: false,
			wantSet:   true,
		},
		"optional local settings": {
			files: map[string]string{"mysite/settings.py": `DEBUG = False
try:
    from .local import *
except ImportError:
    pass
`},
			lookup:    "DEBUG",
			wantValue: false,
			wantSet:   true,
		},
		"optional local settings present": {
			files: map[string]string{
				"mysite/settings.py": "DEBUG = False\ntry:\n    from .local import *\nexcept ImportError:\n    pass\n",
				"mysite/local.py":    "DEBUG = True\n",
			},
			lookup:    "DEBUG",
			wantValue: Conditional,
			wantSet:   true,
		},
		"import from unknown name": {
			files: map[string]string{
				"mysite/settings.py": "from mysite.flags import DEBUG\n",
				"mysite/flags.py":    "import os\n",
			},
			lookup:    "DEBUG",
			wantValue: Expr("mysite.flags.DEBUG"),
			wantSet:   true,
		},
		"external import": {
			files: map[string]string{"mysite/settings.py": `from pathlib import Path
from decouple import config
DEBUG = config("DEBUG", cast=bool)
`},
			lookup:    "config",
			wantValue: Expr("decouple.config"),
			wantSet:   true,
		},
		"external star import": {
			files:     map[string]string{"mysite/settings.py": "from configurations.defaults import *\nDEBUG = False\n"},
			lookup:    "DEBUG",
			wantValue: false,
			wantSet:   true,
		},
		"python path": {
			files: map[string]string{
				"src/mysite/settings.py": "DEBUG = False\n",
			},
			pythonPath: []string{"src"},
			lookup:     "DEBUG",
			wantValue:  false,
			wantSet:    true,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			for name, contents := range tc.files {
				testutil.WriteFile(t, dir, name, contents)
			}
			module := tc.module
			if module == "" {
				module = "mysite.settings"
			}

			l := &StaticLoader{PythonPath: tc.pythonPath}
			s, err := l.Load(t.Context(), dir, Reference{Module: module})
			if err != nil {
				t.Fatal(err)
			}
			v, ok, err := s.Lookup(t.Context(), tc.lookup)
			if err != nil {
				t.Fatal(err)
			}
			testutil.AssertEqual(t, ok, tc.wantSet)
			testutil.AssertEqual(t, v, tc.wantValue)
		})
	}
}

func TestStaticLoaderErrors(t *testing.T) {
	cases := map[string]struct {
		files        map[string]string
		wantLoadErr  error
		wantInLookup string
	}{
		"missing module": {
			files:       map[string]string{"other/settings.py": "DEBUG = False\n"},
			wantLoadErr: ErrModuleNotFound,
		},
		"missing import": {
			files: map[string]string{
				"mysite/settings.py": "from mysite.base import *\n",
			},
			wantInLookup: "module not found",
		},
		"import cycle": {
			files: map[string]string{
				"mysite/settings.py": "from mysite.base import *\n",
				"mysite/base.py":     "from mysite.settings import *\n",
			},
			wantInLookup: "import cycle",
		},
		"syntax error in imported module": {
			files: map[string]string{
				"mysite/settings.py": "from mysite.base import *\n",
				"mysite/base.py":     "DEBUG = (\n",
			},
			wantInLookup: "syntax error",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			for name, contents := range tc.files {
				testutil.WriteFile(t, dir, name, contents)
			}

			s, err := new(StaticLoader).Load(t.Context(), dir, Reference{Module: "mysite.settings"})
			if tc.wantLoadErr != nil {
				if !errors.Is(err, tc.wantLoadErr) {
					t.Fatalf("want error %v, got %v", tc.wantLoadErr, err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			_, _, err = s.Lookup(t.Context(), "DEBUG")
			if err == nil || !strings.Contains(err.Error(), tc.wantInLookup) {
				t.Fatalf("want error containing %q, got %v", tc.wantInLookup, err)
			}
		})
	}
}

func TestStaticLoaderInvalidModuleName(t *testing.T) {
	for _, name := range []string{"", ".settings", "mysite."} {
		_, err := new(StaticLoader).Load(t.Context(), t.TempDir(), Reference{Module: name})
		if !errors.Is(err, ErrModuleNotFound) {
			t.Errorf("Load(%q): want error %v, got %v", name, ErrModuleNotFound, err)
		}
	}
}
