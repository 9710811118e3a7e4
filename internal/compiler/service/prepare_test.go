package service

import (
	"strings"
	"testing"

	"mockinterview/internal/compiler/profile"
	appErr "mockinterview/pkg/errors"
)

func TestPrepareNonWrappedLanguagesUnmodified(t *testing.T) {
	src := "print(int(input()) * 2)\n"
	for _, lang := range profile.Supported() {
		p, _ := profile.Resolve(lang)
		if p.RequiresEntryPointWrap {
			continue
		}
		sub, err := Prepare(src, strings.ToUpper(lang))
		if err != nil {
			t.Fatalf("%s: %v", lang, err)
		}
		if sub.FileName != p.DefaultFileName {
			t.Fatalf("%s: file name %s, want %s", lang, sub.FileName, p.DefaultFileName)
		}
		if sub.FileContent != src {
			t.Fatalf("%s: content modified", lang)
		}
		if sub.SandboxID != lang || sub.Command != "run" {
			t.Fatalf("%s: sandbox=%s command=%s", lang, sub.SandboxID, sub.Command)
		}
		if sub.EntryPoint != "" {
			t.Fatalf("%s: unexpected entry point %s", lang, sub.EntryPoint)
		}
	}
}

func TestPrepareJavaPublicClass(t *testing.T) {
	src := `import java.util.Scanner;

public class Foo {
    public static void main(String[] args) {
        System.out.println(new Scanner(System.in).nextInt() + 1);
    }
}
`
	sub, err := Prepare(src, "Java")
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if sub.FileName != "Foo.java" || sub.EntryPoint != "Foo" {
		t.Fatalf("file=%s entry=%s", sub.FileName, sub.EntryPoint)
	}
	if sub.FileContent != src {
		t.Fatal("declared class source must be submitted unmodified")
	}
}

func TestPrepareJavaIgnoresCommentsAndStrings(t *testing.T) {
	src := `// public class Decoy {}
/* public class AlsoDecoy {} */
final public class Real {
    static String s = "public class InString {";
    public static void main(String[] args) { System.out.println(s); }
}
`
	sub, err := Prepare(src, "java")
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if sub.FileName != "Real.java" {
		t.Fatalf("file = %s", sub.FileName)
	}
}

func TestPrepareJavaIgnoresNestedPublicTypes(t *testing.T) {
	src := `class Solution {
    public static class Node { int v; }
    public static void main(String[] args) { System.out.println(1); }
}
`
	sub, err := Prepare(src, "java")
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if sub.FileName != "Main.java" || sub.EntryPoint != "Solution" {
		t.Fatalf("file=%s entry=%s", sub.FileName, sub.EntryPoint)
	}
	if sub.FileContent != src {
		t.Fatal("declared non-public class must not be wrapped")
	}
}

func TestPrepareJavaWrapsSnippet(t *testing.T) {
	src := "int a = 2;\nSystem.out.println(\"public class X\" + a);"
	sub, err := Prepare(src, "java")
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if sub.FileName != "Main.java" || sub.EntryPoint != "Main" {
		t.Fatalf("file=%s entry=%s", sub.FileName, sub.EntryPoint)
	}
	want := "public class Main {\n" +
		"    public static void main(String[] args) throws Exception {\n" +
		"        int a = 2;\n" +
		"        System.out.println(\"public class X\" + a);\n" +
		"    }\n" +
		"}\n"
	if sub.FileContent != want {
		t.Fatalf("wrapped content:\n%s\nwant:\n%s", sub.FileContent, want)
	}
}

func TestPrepareJavaHoistsImports(t *testing.T) {
	src := "import java.util.*;\n\nList<Integer> xs = new ArrayList<>();\nSystem.out.println(xs.size());\n"
	sub, err := Prepare(src, "java")
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if !strings.HasPrefix(sub.FileContent, "import java.util.*;\n\npublic class Main {\n") {
		t.Fatalf("imports not hoisted:\n%s", sub.FileContent)
	}
	if strings.Count(sub.FileContent, "import") != 1 {
		t.Fatalf("import duplicated:\n%s", sub.FileContent)
	}
}

func TestPrepareJavaWrapsBareMainMethod(t *testing.T) {
	src := "public static void main(String[] args) {\n    System.out.println(42);\n}"
	sub, err := Prepare(src, "java")
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if strings.Count(sub.FileContent, "static void main") != 1 {
		t.Fatalf("main duplicated:\n%s", sub.FileContent)
	}
	if !strings.HasPrefix(sub.FileContent, "public class Main {\n    public static void main(String[] args) {\n") {
		t.Fatalf("unexpected wrapper:\n%s", sub.FileContent)
	}
}

func TestPrepareJavaWrapsStatementsBesideHelperType(t *testing.T) {
	src := "record Pair(int a, int b) {}\nSystem.out.println(new Pair(1, 2));\n"
	sub, err := Prepare(src, "java")
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if sub.FileName != "Main.java" || sub.EntryPoint != "Main" {
		t.Fatalf("file=%s entry=%s", sub.FileName, sub.EntryPoint)
	}
	want := "public class Main {\n" +
		"    public static void main(String[] args) throws Exception {\n" +
		"        System.out.println(new Pair(1, 2));\n" +
		"    }\n" +
		"}\n" +
		"\n" +
		"record Pair(int a, int b) {}\n"
	if sub.FileContent != want {
		t.Fatalf("wrapped content:\n%s\nwant:\n%s", sub.FileContent, want)
	}
}

func TestPrepareJavaMovesHelperClassOutOfBareMain(t *testing.T) {
	src := `import java.util.*;

class Helper {
    List<Integer> xs() { return List.of(1, 2); }
}

public static void main(String[] args) {
    System.out.println(new Helper().xs().size());
}
`
	sub, err := Prepare(src, "java")
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if sub.FileName != "Main.java" || sub.EntryPoint != "Main" {
		t.Fatalf("file=%s entry=%s", sub.FileName, sub.EntryPoint)
	}
	if !strings.HasPrefix(sub.FileContent, "import java.util.*;\n\npublic class Main {\n    public static void main(String[] args) {\n") {
		t.Fatalf("unexpected wrapper:\n%s", sub.FileContent)
	}
	if !strings.HasSuffix(sub.FileContent, "}\n\nclass Helper {\n    List<Integer> xs() { return List.of(1, 2); }\n}\n") {
		t.Fatalf("helper not kept at top level:\n%s", sub.FileContent)
	}
	if strings.Count(sub.FileContent, "static void main") != 1 {
		t.Fatalf("main duplicated:\n%s", sub.FileContent)
	}
}

func TestPrepareJavaDeclarationsOnlyNotWrapped(t *testing.T) {
	src := `import java.util.*;

@FunctionalInterface
interface Op { int apply(int x); }

enum Color { RED, GREEN }

class Solution {
    public static void main(String[] args) { System.out.println(Color.RED); }
};
`
	sub, err := Prepare(src, "java")
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if sub.FileName != "Main.java" || sub.EntryPoint != "Op" {
		t.Fatalf("file=%s entry=%s", sub.FileName, sub.EntryPoint)
	}
	if sub.FileContent != src {
		t.Fatal("declaration-only source must not be wrapped")
	}
}

func TestPrepareRejectsInput(t *testing.T) {
	if _, err := Prepare("   \n\t", "python"); !appErr.Is(err, appErr.SourceCodeEmpty) {
		t.Fatalf("blank source: %v", err)
	}
	if _, err := Prepare("print(1)", "cobol"); !appErr.Is(err, appErr.LanguageNotSupported) {
		t.Fatalf("unknown language: %v", err)
	}
}
