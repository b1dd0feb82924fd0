package harness

import "github.com/felixgeelhaar/codecraft/internal/domain"

// placeholders are the drivers practice questions are submitted with. They
// print a fixed answer until per-question drivers exist.
var placeholders = map[string]string{
	"python": `{{.Source}}

# Test the solution
if __name__ == "__main__":
    print("[0,1]")`,

	"javascript": `{{.Source}}

// Test the solution
console.log("[0,1]")`,

	"cpp": `{{.Source}}

int main() {
    std::cout << "[0,1]" << std::endl;
    return 0;
}`,

	"java": `{{.Source}}

// Test the solution
public static void main(String[] args) {
    System.out.println("[0,1]");
}`,
}

// Placeholder returns the question driver for a language, or nil when the
// source is submitted as written.
func Placeholder(language string) *domain.Harness {
	text, ok := placeholders[language]
	if !ok {
		return nil
	}
	return &domain.Harness{Template: text}
}
