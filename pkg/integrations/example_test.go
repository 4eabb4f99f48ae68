package integrations_test

import (
	"fmt"

	"github.com/matzehuels/stackresolve/pkg/integrations"
)

func ExampleJoinURL() {
	// Repository URLs may or may not end with a slash
	fmt.Println(integrations.JoinURL("https://repo.maven.apache.org/maven2", "junit/junit/4.13.2/junit-4.13.2.pom"))
	fmt.Println(integrations.JoinURL("https://repo.maven.apache.org/maven2/", "junit/junit/maven-metadata.xml"))
	// Output:
	// https://repo.maven.apache.org/maven2/junit/junit/4.13.2/junit-4.13.2.pom
	// https://repo.maven.apache.org/maven2/junit/junit/maven-metadata.xml
}

func ExampleURLEncode() {
	// URL-encode special characters for search queries
	fmt.Println(integrations.URLEncode(`g:"org.slf4j"`))
	fmt.Println(integrations.URLEncode("spring core"))
	// Output:
	// g%3A%22org.slf4j%22
	// spring+core
}
